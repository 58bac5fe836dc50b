package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

var ErrConfirmationTimeout = errors.New("transaction was not confirmed in time")

// RPCError is a JSON-RPC error object returned by the compression indexer.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Method  string          `json:"-"`
}

func (e *RPCError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// TransactionError reports a transaction rejected in preflight or failed on
// chain. Logs holds the program log lines when the node returned them.
type TransactionError struct {
	Signature solana.Signature
	Message   string
	Err       any
	Logs      []string
}

func (e *TransactionError) Error() string {
	var builder strings.Builder
	builder.WriteString("transaction failed")
	if !e.Signature.IsZero() {
		builder.WriteString(" (")
		builder.WriteString(e.Signature.String())
		builder.WriteString(")")
	}
	if e.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(e.Message)
	} else if e.Err != nil {
		encoded, err := json.Marshal(e.Err)
		if err == nil {
			builder.WriteString(": ")
			builder.Write(encoded)
		}
	}
	return builder.String()
}

// LogsFromError returns the program logs attached to err, if any.
func LogsFromError(err error) []string {
	var txErr *TransactionError
	if errors.As(err, &txErr) {
		return txErr.Logs
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return logsFromData(rpcErr.Data)
	}
	return nil
}

func asTransactionError(err error, signature solana.Signature) error {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}

	txErr := &TransactionError{
		Signature: signature,
		Message:   rpcErr.Message,
		Logs:      logsFromData(rpcErr.Data),
	}
	if data, ok := rpcErr.Data.(map[string]any); ok {
		txErr.Err = data["err"]
	}
	return txErr
}

func logsFromData(data any) []string {
	fields, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	rawLogs, ok := fields["logs"].([]any)
	if !ok {
		return nil
	}

	logs := make([]string, 0, len(rawLogs))
	for _, entry := range rawLogs {
		if line, ok := entry.(string); ok {
			logs = append(logs, line)
		}
	}
	return logs
}
