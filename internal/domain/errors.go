package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRecipeNotFound is returned when no recipe has the requested normalized key
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrRecipeExists is returned when creating a recipe whose normalized key is taken
	ErrRecipeExists = errors.New("recipe already exists")

	// ErrInventoryItemNotFound is returned when an inventory key is not tracked
	ErrInventoryItemNotFound = errors.New("inventory item not found")

	// ErrStapleNotFound is returned when removing an unknown pantry staple
	ErrStapleNotFound = errors.New("pantry staple not found")

	// ErrStapleExists is returned when adding a pantry staple twice
	ErrStapleExists = errors.New("pantry staple already exists")

	// ErrInvalidStatus is returned for inventory status values outside on_hand/low/out
	ErrInvalidStatus = errors.New("invalid inventory status")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrDecomposerFailure is returned when the meal decomposer request fails
	ErrDecomposerFailure = errors.New("meal decomposer request failed")

	// ErrDecomposerUnavailable is returned when no decomposer is configured
	ErrDecomposerUnavailable = errors.New("meal decomposer not configured")

	// ErrMealNotRecognized is returned by the decomposer for names it cannot decompose
	ErrMealNotRecognized = errors.New("meal not recognized by decomposer")
)

// MalformedInputError reports a meal, ingredient or restock addition that failed
// boundary validation. The offending meal's purchase items are left out of the run.
type MalformedInputError struct {
	Meal   string `json:"meal"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input in %q: %s %s", e.Meal, e.Field, e.Reason)
}

// CategoryConflictError reports a merge group whose sources disagree on category.
// The group is still emitted, flagged with CategoryConflict.
type CategoryConflictError struct {
	Ingredient string     `json:"ingredient"`
	Unit       string     `json:"unit"`
	Categories []Category `json:"categories"`
	Meals      []string   `json:"meals"`
}

func (e *CategoryConflictError) Error() string {
	cats := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		cats[i] = string(c)
	}
	return fmt.Sprintf("category conflict for %q: %s", e.Ingredient, strings.Join(cats, ", "))
}

// PolicyViolationError is a programming error: the exclusion policy saw a state
// outside its closed input set. It halts the consolidation run.
type PolicyViolationError struct {
	Key    string
	Status InventoryStatus
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("exclusion policy violation for %q: status %q outside closed set", e.Key, e.Status)
}
