// Package bookkeeper keeps the books of a small business: sales, purchases,
// expenses, capital injections and settlements with customers and
// suppliers.
//
// Three aggregates depend on the transaction log and are kept in step with
// it:
//   - Contact balances: what each customer owes the business (positive) and
//     what the business owes each supplier (negative).
//   - Inventory quantities: the stock of every item, increased by purchases
//     and decreased by sales. Stock may go negative.
//   - The business summary: cash, totals and what is receivable and payable,
//     computed on demand from the log.
//
// Every change goes through a Coordinator. A ledger unit reverses the
// effects of the previous version of a transaction, applies the next one and
// stores the result as one atomic Store.Update. Units that conflict with a
// concurrent one are retried from scratch, so that no failure leaves
// balances, stock and log out of step.
//
// Two stores are provided: MemoryStore, and the SQLite store of the sqlstore
// package.
package bookkeeper
