// Package editor implements the pure editing operations of a form.
// Every operation returns a new form and leaves its input untouched; on
// error the input is returned as is.
package editor

import (
	"time"

	"formcraft/internal/model"
)

var now = func() time.Time { return time.Now().UTC() }

// UpdateDetails edits the title and description of the form
func UpdateDetails(form model.Form, patch model.FormPatch) (model.Form, error) {
	out := form.Clone()
	if patch.Title != nil {
		out.Title = *patch.Title
	}
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	out.UpdatedAt = now()
	return out, nil
}

// move extracts the element at from and reinserts it at to in the
// post-removal sequence. Both indices must be in range.
func move[T any](items []T, from, to int) []T {
	out := make([]T, 0, len(items))
	item := items[from]
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	out = append(out, item)
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = item
	return out
}

func insertAt(ids []string, index int, id string) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	return append(out, ids[index:]...)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
