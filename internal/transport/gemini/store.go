package gemini

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"google.golang.org/genai"

	"github.com/kailas-cloud/filesearch/internal/domain"
	"github.com/kailas-cloud/filesearch/internal/domain/operation"
)

const pdfMIMEType = "application/pdf"

// CreateStore creates a file search store and returns its resource name.
func (c *Client) CreateStore(ctx context.Context, displayName string) (string, error) {
	start := time.Now()
	store, err := c.stores.Create(ctx, &genai.CreateFileSearchStoreConfig{DisplayName: displayName})
	if err := c.observe(opCreateStore, start, err); err != nil {
		return "", err
	}
	if store == nil || store.Name == "" {
		return "", emptyResponse(opCreateStore, "store name")
	}
	return store.Name, nil
}

// UploadFile uploads a PDF into the store and returns the indexing operation.
func (c *Client) UploadFile(ctx context.Context, storeRef, path string) (operation.Operation, error) {
	src, err := c.open(path)
	if err != nil {
		return operation.Operation{}, err
	}
	defer src.Close()

	start := time.Now()
	op, err := c.stores.UploadToFileSearchStore(ctx, src, storeRef, &genai.UploadToFileSearchStoreConfig{
		DisplayName: filepath.Base(path),
		MIMEType:    pdfMIMEType,
	})
	if err := c.observe(opUploadFile, start, err); err != nil {
		return operation.Operation{}, err
	}
	if op == nil {
		return operation.Operation{}, emptyResponse(opUploadFile, "operation")
	}
	return toOperation(op), nil
}

// PollOperation refreshes an operation by name.
func (c *Client) PollOperation(ctx context.Context, op operation.Operation) (operation.Operation, error) {
	if op.Name == "" {
		return operation.Operation{}, fmt.Errorf("poll operation: empty operation name: %w", domain.ErrGatewayError)
	}

	start := time.Now()
	out, err := c.operations.GetUploadToFileSearchStoreOperation(ctx,
		&genai.UploadToFileSearchStoreOperation{Name: op.Name}, nil)
	if err := c.observe(opPollOperation, start, err); err != nil {
		return operation.Operation{}, err
	}
	if out == nil {
		return operation.Operation{}, emptyResponse(opPollOperation, "operation")
	}

	polled := toOperation(out)
	if polled.Name == "" {
		polled.Name = op.Name
	}
	return polled, nil
}

// toOperation converts a long-running upload operation. Error carries the
// status message, or its code when the message is empty.
func toOperation(op *genai.UploadToFileSearchStoreOperation) operation.Operation {
	out := operation.Operation{Name: op.Name, Done: op.Done}
	if op.Error == nil {
		return out
	}
	if msg, ok := op.Error["message"].(string); ok && msg != "" {
		out.Error = msg
		return out
	}
	out.Error = fmt.Sprintf("operation error code %v", op.Error["code"])
	return out
}
