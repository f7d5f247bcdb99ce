package client

import "testing"

func TestModalLifecycle(t *testing.T) {
	m := NewTagModal()
	if m.State() != ModalClosed {
		t.Fatal("new modal should start closed")
	}

	if err := m.Open("post.md", []byte("# Post")); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if m.State() != ModalOpen {
		t.Fatal("modal should be open")
	}

	if err := m.AddTag("go"); err != nil {
		t.Fatal(err)
	}
	if err := m.AddTag("web"); err != nil {
		t.Fatal(err)
	}
	// Duplicate is a no-op.
	if err := m.AddTag("go"); err != nil {
		t.Fatal(err)
	}

	filename, content, tags, err := m.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if filename != "post.md" || string(content) != "# Post" {
		t.Errorf("confirmed file = %q/%q", filename, content)
	}
	if len(tags) != 2 || tags[0] != "go" || tags[1] != "web" {
		t.Errorf("tags = %v, want [go web]", tags)
	}
	if m.State() != ModalClosed {
		t.Error("modal should close after confirm")
	}
}

func TestModalCancelDiscards(t *testing.T) {
	m := NewTagModal()
	if err := m.Open("a.md", []byte("x")); err != nil {
		t.Fatal(err)
	}
	_ = m.AddTag("t")
	m.Cancel()

	if m.State() != ModalClosed {
		t.Error("modal should close after cancel")
	}
	if _, _, _, err := m.Confirm(); err == nil {
		t.Error("Confirm after cancel should fail")
	}
}

func TestModalReopenResetsBuffer(t *testing.T) {
	m := NewTagModal()
	_ = m.Open("a.md", []byte("x"))
	_ = m.AddTag("stale")
	m.Cancel()

	if err := m.Open("b.md", []byte("y")); err != nil {
		t.Fatal(err)
	}
	if tags := m.Tags(); len(tags) != 0 {
		t.Errorf("buffer after reopen = %v, want empty", tags)
	}
}

func TestModalGuards(t *testing.T) {
	m := NewTagModal()

	if err := m.AddTag("x"); err == nil {
		t.Error("AddTag on closed modal should fail")
	}
	if _, _, _, err := m.Confirm(); err == nil {
		t.Error("Confirm on closed modal should fail")
	}
	if err := m.Open("", nil); err == nil {
		t.Error("Open without a filename should fail")
	}

	_ = m.Open("a.md", []byte("x"))
	if err := m.Open("b.md", []byte("y")); err == nil {
		t.Error("Open while already open should fail")
	}
	if err := m.AddTag(""); err == nil {
		t.Error("empty tag should be rejected")
	}
}
