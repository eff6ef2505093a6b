// internal/lease/key.go
package lease

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// InvalidArgumentError is thrown when a task name or argument set cannot
// be deterministically encoded into a lease key.
type InvalidArgumentError struct {
	Task   string
	Reason string
	Err    error
}

func (e *InvalidArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid lease argument for task %q: %s: %v", e.Task, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid lease argument for task %q: %s", e.Task, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.Err
}

// DeriveKey maps a task name and its argument set to a lookup key in the
// backing store. The mapping is pure and deterministic: identical
// (task, args) pairs always produce the same key, and distinct pairs
// produce distinct keys with high probability.
//
// Arguments are canonicalized through JSON encoding (map keys are sorted
// by encoding/json), then hashed together with the task name. Values that
// cannot be JSON-encoded, and empty task names, yield an
// *InvalidArgumentError.
func DeriveKey(task string, args any) (string, error) {
	if task == "" {
		return "", &InvalidArgumentError{Task: task, Reason: "task name is empty"}
	}

	encoded, err := json.Marshal(args)
	if err != nil {
		return "", &InvalidArgumentError{Task: task, Reason: "args are not encodable", Err: err}
	}

	h := sha256.New()
	h.Write([]byte(task))
	h.Write([]byte{0})
	h.Write(encoded)

	return hex.EncodeToString(h.Sum(nil)), nil
}
