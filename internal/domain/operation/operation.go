// Package operation describes long-running remote operations.
package operation

// Operation is a handle to a remote upload/indexing operation.
type Operation struct {
	Name  string
	Done  bool
	Error string // set when the operation finished unsuccessfully
}

// Failed reports whether the operation finished with an error.
func (o Operation) Failed() bool {
	return o.Done && o.Error != ""
}
