package docs

import (
	"regexp"
	"slices"
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	// Every topic listed in the readme exists, and every topic is listed.
	readme, err := GetTopic("readme")
	if err != nil {
		t.Fatalf("GetTopic(readme) unexpected error: %v", err)
	}
	topicRegex := regexp.MustCompile(`(?m)^\*\s+([^:]+):.*$`)
	var listed []string
	for _, m := range topicRegex.FindAllStringSubmatch(readme, -1) {
		listed = append(listed, strings.TrimSpace(m[1]))
	}

	for _, topic := range listed {
		if _, err := GetTopic(topic); err != nil {
			t.Errorf("GetTopic(%q) unexpected error: %v", topic, err)
		}
	}

	all, err := GetAllTopics()
	if err != nil {
		t.Fatalf("GetAllTopics() unexpected error: %v", err)
	}
	for _, topic := range all {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}
}

func TestGetTopics(t *testing.T) {
	got, err := GetTopics("balances", "inventory")
	if err != nil {
		t.Fatalf("GetTopics() unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "# Balances") || !strings.Contains(got, "# Inventory") {
		t.Errorf("GetTopics() got:\n%s", got)
	}

	all, err := GetTopics("*")
	if err != nil {
		t.Fatalf("GetTopics(*) unexpected error: %v", err)
	}
	if strings.Contains(all, "# bk user manual") || !strings.Contains(all, "# Server") {
		t.Errorf("GetTopics(*) should hold every topic but the readme")
	}

	if _, err := GetTopics("nope"); err == nil {
		t.Error("GetTopics(nope) expected an error")
	}
}
