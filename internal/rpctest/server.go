// Package rpctest provides an in-process JSON-RPC server that answers the
// Solana ledger methods and the compression indexer methods used by the
// cookbook, for tests.
package rpctest

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
)

// Handler answers one JSON-RPC method. Returning an *Error produces a
// JSON-RPC error object.
type Handler func(params json.RawMessage) (any, error)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

type Account struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

type Server struct {
	*httptest.Server

	mu           sync.Mutex
	handlers     map[string]Handler
	calls        map[string][]json.RawMessage
	accounts     map[solana.PublicKey]Account
	tokens       []TokenAccount
	compressed   []CompressedAccount
	transactions []*solana.Transaction
	onSend       func(tx *solana.Transaction) error
	slot         uint64
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      any             `json:"id"`
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	server := &Server{
		handlers: map[string]Handler{},
		calls:    map[string][]json.RawMessage{},
		accounts: map[solana.PublicKey]Account{},
		slot:     100,
	}
	server.installDefaults()
	server.Server = httptest.NewServer(http.HandlerFunc(server.serveHTTP))
	t.Cleanup(server.Close)
	return server
}

// Handle replaces the handler for method.
func (s *Server) Handle(method string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = handler
}

// HandleResult answers method with a fixed result.
func (s *Server) HandleResult(method string, result any) {
	s.Handle(method, func(json.RawMessage) (any, error) {
		return result, nil
	})
}

// OnSend registers a hook run for every decoded sendTransaction call.
func (s *Server) OnSend(hook func(tx *solana.Transaction) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSend = hook
}

// SetAccount stores an account returned by getAccountInfo.
func (s *Server) SetAccount(address solana.PublicKey, account Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[address] = account
}

// Calls returns the raw params of every call to method.
func (s *Server) Calls(method string) []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.calls[method]...)
}

// Transactions returns every transaction received through sendTransaction.
func (s *Server) Transactions() []*solana.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*solana.Transaction(nil), s.transactions...)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var incoming request
	if err := json.Unmarshal(body, &incoming); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[incoming.Method] = append(s.calls[incoming.Method], incoming.Params)
	handler, ok := s.handlers[incoming.Method]
	s.mu.Unlock()

	outgoing := response{JSONRPC: "2.0", ID: incoming.ID}
	if !ok {
		outgoing.Error = &Error{Code: -32601, Message: "Method not found: " + incoming.Method}
	} else {
		result, handlerErr := handler(incoming.Params)
		if handlerErr != nil {
			rpcErr, isRPCErr := handlerErr.(*Error)
			if !isRPCErr {
				rpcErr = &Error{Code: -32000, Message: handlerErr.Error()}
			}
			outgoing.Error = rpcErr
		} else {
			encoded, encodeErr := json.Marshal(result)
			if encodeErr != nil {
				outgoing.Error = &Error{Code: -32603, Message: encodeErr.Error()}
			} else {
				outgoing.Result = encoded
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(outgoing)
}

func (s *Server) context() map[string]any {
	return map[string]any{"slot": s.slot}
}

func (s *Server) installDefaults() {
	s.handlers["getLatestBlockhash"] = func(json.RawMessage) (any, error) {
		return map[string]any{
			"context": s.context(),
			"value": map[string]any{
				"blockhash":            solana.HashFromBytes(make([]byte, 32)).String(),
				"lastValidBlockHeight": 1000,
			},
		}, nil
	}

	s.handlers["sendTransaction"] = func(params json.RawMessage) (any, error) {
		var args []json.RawMessage
		if err := json.Unmarshal(params, &args); err != nil || len(args) == 0 {
			return nil, &Error{Code: -32602, Message: "invalid params"}
		}
		var encoded string
		if err := json.Unmarshal(args[0], &encoded); err != nil {
			return nil, &Error{Code: -32602, Message: "invalid transaction"}
		}
		tx, err := solana.TransactionFromBase64(encoded)
		if err != nil {
			return nil, &Error{Code: -32602, Message: err.Error()}
		}

		s.mu.Lock()
		s.transactions = append(s.transactions, tx)
		hook := s.onSend
		s.mu.Unlock()

		if hook != nil {
			if err := hook(tx); err != nil {
				return nil, err
			}
		}
		if len(tx.Signatures) == 0 {
			return nil, &Error{Code: -32602, Message: "unsigned transaction"}
		}
		return tx.Signatures[0].String(), nil
	}

	s.handlers["requestAirdrop"] = func(json.RawMessage) (any, error) {
		var signature solana.Signature
		s.mu.Lock()
		binary.LittleEndian.PutUint64(signature[:8], uint64(len(s.calls["requestAirdrop"])))
		s.mu.Unlock()
		signature[63] = 0xa1
		return signature.String(), nil
	}

	s.handlers["getSignatureStatuses"] = func(params json.RawMessage) (any, error) {
		var args []json.RawMessage
		if err := json.Unmarshal(params, &args); err != nil || len(args) == 0 {
			return nil, &Error{Code: -32602, Message: "invalid params"}
		}
		var signatures []string
		if err := json.Unmarshal(args[0], &signatures); err != nil {
			return nil, &Error{Code: -32602, Message: "invalid signatures"}
		}
		statuses := make([]any, len(signatures))
		for index := range signatures {
			statuses[index] = map[string]any{
				"slot":               s.slot,
				"confirmations":      nil,
				"err":                nil,
				"confirmationStatus": "confirmed",
			}
		}
		return map[string]any{"context": s.context(), "value": statuses}, nil
	}

	s.handlers["getAccountInfo"] = func(params json.RawMessage) (any, error) {
		address, err := firstKeyParam(params)
		if err != nil {
			return nil, err
		}
		return map[string]any{"context": s.context(), "value": s.accountValue(address)}, nil
	}

	s.handlers["getMultipleAccounts"] = func(params json.RawMessage) (any, error) {
		var args []json.RawMessage
		if err := json.Unmarshal(params, &args); err != nil || len(args) == 0 {
			return nil, &Error{Code: -32602, Message: "invalid params"}
		}
		var addresses []solana.PublicKey
		if err := json.Unmarshal(args[0], &addresses); err != nil {
			return nil, &Error{Code: -32602, Message: "invalid addresses"}
		}
		values := make([]any, len(addresses))
		for index, address := range addresses {
			values[index] = s.accountValue(address)
		}
		return map[string]any{"context": s.context(), "value": values}, nil
	}

	s.handlers["getMinimumBalanceForRentExemption"] = func(params json.RawMessage) (any, error) {
		var args []json.RawMessage
		_ = json.Unmarshal(params, &args)
		size := uint64(0)
		if len(args) > 0 {
			_ = json.Unmarshal(args[0], &size)
		}
		return (size + 128) * 6960, nil
	}

	s.handlers["getBalance"] = func(params json.RawMessage) (any, error) {
		address, err := firstKeyParam(params)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		account := s.accounts[address]
		s.mu.Unlock()
		return map[string]any{"context": s.context(), "value": account.Lamports}, nil
	}

	s.handlers["getTokenAccountBalance"] = func(params json.RawMessage) (any, error) {
		address, err := firstKeyParam(params)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		account, ok := s.accounts[address]
		var decimals uint8
		if ok && len(account.Data) >= 72 {
			var mint solana.PublicKey
			copy(mint[:], account.Data[:32])
			if mintAccount, found := s.accounts[mint]; found && len(mintAccount.Data) > 44 {
				decimals = mintAccount.Data[44]
			}
		}
		s.mu.Unlock()
		if !ok || len(account.Data) < 72 {
			return nil, &Error{Code: -32602, Message: "Invalid param: could not find account"}
		}
		amount := binary.LittleEndian.Uint64(account.Data[64:72])
		return map[string]any{
			"context": s.context(),
			"value": map[string]any{
				"amount":         strconv.FormatUint(amount, 10),
				"decimals":       decimals,
				"uiAmountString": strconv.FormatUint(amount, 10),
			},
		}, nil
	}

	s.handlers["getSignaturesForAddress"] = func(json.RawMessage) (any, error) {
		return []any{}, nil
	}

	s.handlers["getCompressedTokenAccountsByOwner"] = s.tokenAccountsHandler(false)
	s.handlers["getCompressedTokenAccountsByDelegate"] = s.tokenAccountsHandler(true)
	s.handlers["getCompressedTokenBalancesByOwnerV2"] = s.tokenBalancesHandler
	s.handlers["getCompressionSignaturesForOwner"] = func(json.RawMessage) (any, error) {
		return map[string]any{
			"context": s.context(),
			"value":   map[string]any{"items": []any{}, "cursor": nil},
		}, nil
	}
	s.handlers["getCompressedAccount"] = s.compressedAccountHandler
	s.handlers["getValidityProof"] = s.validityProofHandler
	s.handlers["getIndexerHealth"] = func(json.RawMessage) (any, error) {
		return "ok", nil
	}
	s.handlers["getIndexerSlot"] = func(json.RawMessage) (any, error) {
		return s.slot, nil
	}
}

func (s *Server) accountValue(address solana.PublicKey) any {
	s.mu.Lock()
	account, ok := s.accounts[address]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return map[string]any{
		"lamports":   account.Lamports,
		"owner":      account.Owner.String(),
		"data":       []string{base64.StdEncoding.EncodeToString(account.Data), "base64"},
		"executable": false,
		"rentEpoch":  0,
		"space":      len(account.Data),
	}
}

func firstKeyParam(params json.RawMessage) (solana.PublicKey, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(params, &args); err != nil || len(args) == 0 {
		return solana.PublicKey{}, &Error{Code: -32602, Message: "invalid params"}
	}
	var address solana.PublicKey
	if err := json.Unmarshal(args[0], &address); err != nil {
		return solana.PublicKey{}, &Error{Code: -32602, Message: "invalid address"}
	}
	return address, nil
}
