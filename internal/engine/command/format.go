package command

import (
	"fmt"

	"github.com/dshills/folio/internal/engine/node"
)

// FormatText toggles a character format across the selected text. If every
// selected character already has the flag it is cleared, otherwise it is
// set. A collapsed selection leaves the tree unchanged.
type FormatText struct {
	Format node.Format
}

// Kind implements Command.
func (FormatText) Kind() Kind { return KindFormatText }

// Description implements Command.
func (c FormatText) Description() string { return "Format " + c.Format.String() }

// Validate implements Validator.
func (c FormatText) Validate() error {
	for _, f := range node.AllFormats {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("%w: format %d", ErrInvalidArgument, c.Format)
}

// Apply implements Command.
func (c FormatText) Apply(tx *Transaction) error {
	texts := tx.selectedTexts()
	if len(texts) == 0 {
		return nil
	}
	all := true
	for _, t := range texts {
		if !t.Format.Has(c.Format) {
			all = false
			break
		}
	}
	for _, t := range texts {
		if all {
			t.Format = t.Format.Clear(c.Format)
		} else {
			t.Format = t.Format.Set(c.Format)
		}
	}
	return nil
}

// SetTextStyle sets one style property on the selected text. An empty
// Value removes the property.
type SetTextStyle struct {
	Property string
	Value    string
}

// Kind implements Command.
func (SetTextStyle) Kind() Kind { return KindSetTextStyle }

// Description implements Command.
func (c SetTextStyle) Description() string {
	if c.Value == "" {
		return "Remove " + c.Property
	}
	return fmt.Sprintf("Set %s to %s", c.Property, c.Value)
}

// Validate implements Validator.
func (c SetTextStyle) Validate() error {
	if !node.IsStyleProperty(c.Property) {
		return fmt.Errorf("%w: style property %q", ErrInvalidArgument, c.Property)
	}
	if _, err := node.NormalizeStyleValue(c.Property, c.Value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

// Apply implements Command.
func (c SetTextStyle) Apply(tx *Transaction) error {
	value, err := node.NormalizeStyleValue(c.Property, c.Value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	for _, t := range tx.selectedTexts() {
		t.Style = t.Style.With(c.Property, value)
	}
	return nil
}

// ClearFormatting removes all format flags and style from the selected text.
type ClearFormatting struct{}

// Kind implements Command.
func (ClearFormatting) Kind() Kind { return KindClearFormatting }

// Description implements Command.
func (ClearFormatting) Description() string { return "Clear formatting" }

// Apply implements Command.
func (ClearFormatting) Apply(tx *Transaction) error {
	for _, t := range tx.selectedTexts() {
		t.Format = 0
		t.Style = nil
	}
	return nil
}
