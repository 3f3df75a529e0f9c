package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Handle identifiers used on the canvas.
const (
	HandleYesID        = "yes"
	HandleNoID         = "no"
	HandleMultiAllID   = "multi-all"
	HandleTextOutputID = "text-output"

	optionHandlePrefix = "option-"
)

// Fixed labels shown for non-option handles.
const (
	LabelYes         = "Yes"
	LabelNo          = "No"
	LabelAllSelected = "All Selected"
	LabelAnyText     = "Any Text"
	LabelDefault     = "Default"
)

// HandleKind classifies an output handle.
type HandleKind int

const (
	HandleNone HandleKind = iota
	HandleOption
	HandleYes
	HandleNo
	HandleAll
	HandleText
)

// Handle is a parsed output handle. Index is only meaningful for HandleOption.
type Handle struct {
	Kind  HandleKind
	Index int
}

// OptionHandle returns the handle id of the option at index i.
func OptionHandle(i int) string {
	return optionHandlePrefix + strconv.Itoa(i)
}

// ParseHandle parses a handle id. The empty string parses to HandleNone.
func ParseHandle(id string) (Handle, error) {
	switch id {
	case "":
		return Handle{Kind: HandleNone}, nil
	case HandleYesID:
		return Handle{Kind: HandleYes}, nil
	case HandleNoID:
		return Handle{Kind: HandleNo}, nil
	case HandleMultiAllID:
		return Handle{Kind: HandleAll}, nil
	case HandleTextOutputID:
		return Handle{Kind: HandleText}, nil
	}
	if rest, ok := strings.CutPrefix(id, optionHandlePrefix); ok {
		i, err := strconv.Atoi(rest)
		if err == nil && i >= 0 {
			return Handle{Kind: HandleOption, Index: i}, nil
		}
	}
	return Handle{}, fmt.Errorf("%w: %q", ErrInvalidHandle, id)
}

// String returns the handle id.
func (h Handle) String() string {
	switch h.Kind {
	case HandleOption:
		return OptionHandle(h.Index)
	case HandleYes:
		return HandleYesID
	case HandleNo:
		return HandleNoID
	case HandleAll:
		return HandleMultiAllID
	case HandleText:
		return HandleTextOutputID
	}
	return ""
}

// Label resolves the display label of the handle against the node options.
// It reports false when an option handle points past the options or at an empty option.
func (h Handle) Label(options []string) (string, bool) {
	switch h.Kind {
	case HandleOption:
		if h.Index < len(options) && options[h.Index] != "" {
			return options[h.Index], true
		}
		return "", false
	case HandleYes:
		return LabelYes, true
	case HandleNo:
		return LabelNo, true
	case HandleAll:
		return LabelAllSelected, true
	case HandleText:
		return LabelAnyText, true
	}
	return "", false
}

// EdgeLabel is the label stored on a new edge leaving this handle.
// Unresolvable option handles and the default handle are labelled "Default".
func (h Handle) EdgeLabel(options []string) string {
	if label, ok := h.Label(options); ok {
		return label
	}
	return LabelDefault
}
