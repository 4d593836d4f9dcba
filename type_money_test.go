package bookkeeper

import "testing"

func TestMoney_Format(t *testing.T) {
	testCases := []struct {
		value Money
		want  string
	}{
		{M(1234.5), "$1,234.50"},
		{M(0), "$0.00"},
		{M(-12), "-$12.00"},
		{M(0.125), "$0.13"},
	}
	for _, tc := range testCases {
		if got := tc.value.Format("USD"); got != tc.want {
			t.Errorf("Format(%v): got %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestMoney_Exact(t *testing.T) {
	// ten sales of 0.1 must add up to exactly 1
	total := M(0)
	for range 10 {
		total = total.Add(M(0.1))
	}
	if !total.Equal(M(1)) {
		t.Errorf("got %v, want 1", total)
	}
	if got := M(19.99).Mul(Q(3)); !got.Equal(M(59.97)) {
		t.Errorf("Mul: got %v, want 59.97", got)
	}
}

func TestParseMoney(t *testing.T) {
	m, err := ParseMoney("12.50")
	if err != nil || !m.Equal(M(12.5)) {
		t.Errorf("ParseMoney(12.50) got %v, %v, want 12.5", m, err)
	}
	if _, err := ParseMoney("twelve"); err == nil {
		t.Errorf("ParseMoney(twelve) want an error")
	}
	q, err := ParseQuantity("0.75")
	if err != nil || !q.Equal(Q(0.75)) {
		t.Errorf("ParseQuantity(0.75) got %v, %v, want 0.75", q, err)
	}
}

func TestMoney_SignedString(t *testing.T) {
	for _, tc := range []struct {
		value Money
		want  string
	}{{M(5), "+5"}, {M(-5), "-5"}, {M(0), "-"}} {
		if got := tc.value.SignedString(); got != tc.want {
			t.Errorf("SignedString(%v): got %q, want %q", tc.value, got, tc.want)
		}
	}
}
