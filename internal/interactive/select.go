// Package interactive implements wikictl's keyboard-driven pickers: flat
// document selection, parent selection, and the folder-at-a-time browser
// used by export and import. Browsing loads one level of the tree per
// navigation step through the mirror's branch refresh, so large
// collections never have to be fetched whole just to pick a destination.
package interactive

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"

	"github.com/wikictl/wikictl/internal/api"
	"github.com/wikictl/wikictl/internal/doctree"
)

const listHeight = 18

// ErrCanceled reports that the user aborted a prompt.
var ErrCanceled = errors.New("canceled by user")

func runField(field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCanceled
	}
	return err
}

// WithSpinner runs fn behind a spinner so slow fetches do not look like a
// frozen terminal.
func WithSpinner(title string, fn func() error) error {
	var fnErr error
	if err := spinner.New().Title(title).Action(func() { fnErr = fn() }).Run(); err != nil {
		return err
	}
	return fnErr
}

// Confirm asks a yes/no question.
func Confirm(message string, def bool) (bool, error) {
	ok := def
	if err := runField(huh.NewConfirm().Title(message).Value(&ok)); err != nil {
		return false, err
	}
	return ok, nil
}

// SelectDocuments presents the documents of a collection as breadcrumb
// paths and returns the chosen ids. With multi set, any number of
// documents (at least one) can be toggled; otherwise exactly one is
// picked.
func SelectDocuments(docs []api.Record, multi bool) ([]string, error) {
	byID := doctree.ByID(docs)
	options := make([]huh.Option[string], 0, len(docs))
	for _, d := range docs {
		label := fmt.Sprintf("%s  [%s]", doctree.Breadcrumb(d, byID), d.ID())
		options = append(options, huh.NewOption(label, d.ID()))
	}
	sort.Slice(options, func(i, j int) bool {
		return strings.ToLower(options[i].Key) < strings.ToLower(options[j].Key)
	})

	if multi {
		var picked []string
		field := huh.NewMultiSelect[string]().
			Title("Select documents").
			Options(options...).
			Height(listHeight).
			Validate(func(ids []string) error {
				if len(ids) == 0 {
					return errors.New("select at least one document")
				}
				return nil
			}).
			Value(&picked)
		if err := runField(field); err != nil {
			return nil, err
		}
		return picked, nil
	}

	var picked string
	field := huh.NewSelect[string]().
		Title("Select a document").
		Options(options...).
		Height(listHeight).
		Value(&picked)
	if err := runField(field); err != nil {
		return nil, err
	}
	return []string{picked}, nil
}

// PickParent selects a parent document from a flat list; a nil result
// means the collection root. Used by the non-interactive import path
// where full tree browsing is unnecessary.
func PickParent(docs []api.Record, allowNone bool) (*string, error) {
	const rootValue = "\x00root"

	byID := doctree.ByID(docs)
	options := make([]huh.Option[string], 0, len(docs)+1)
	for _, d := range docs {
		label := fmt.Sprintf("%s  [%s]", doctree.Breadcrumb(d, byID), d.ID())
		options = append(options, huh.NewOption(label, d.ID()))
	}
	sort.Slice(options, func(i, j int) bool {
		return strings.ToLower(options[i].Key) < strings.ToLower(options[j].Key)
	})
	if allowNone {
		options = append([]huh.Option[string]{huh.NewOption("(no parent, collection root)", rootValue)}, options...)
	}

	var picked string
	field := huh.NewSelect[string]().
		Title("Import under which document?").
		Options(options...).
		Height(listHeight).
		Value(&picked)
	if err := runField(field); err != nil {
		return nil, err
	}
	if picked == rootValue {
		return nil, nil
	}
	return &picked, nil
}
