package notice

import (
	"errors"
	"testing"
)

// TestValidate_Valid tests that a populated notice passes validation.
func TestValidate_Valid(t *testing.T) {
	n := Notice{Title: "Walk", Content: "Sunny day walk"}
	if err := n.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestValidate_EmptyTitle tests that an empty title is rejected.
func TestValidate_EmptyTitle(t *testing.T) {
	n := Notice{Title: "", Content: "x"}
	if err := n.Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
}

// TestValidate_WhitespaceTitle tests that a whitespace-only title is rejected.
func TestValidate_WhitespaceTitle(t *testing.T) {
	n := Notice{Title: "   \t", Content: "x"}
	if err := n.Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
}

// TestValidate_EmptyContent tests that an empty content is rejected.
func TestValidate_EmptyContent(t *testing.T) {
	n := Notice{Title: "Walk", Content: " "}
	if err := n.Validate(); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

// TestHasImage tests the image presence check.
func TestHasImage(t *testing.T) {
	n := Notice{Title: "Walk", Content: "x"}
	if n.HasImage() {
		t.Error("expected HasImage=false for empty ImagePath")
	}
	n.ImagePath = "/uploads/image-1-abc.jpg"
	if !n.HasImage() {
		t.Error("expected HasImage=true")
	}
}
