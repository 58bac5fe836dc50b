package cookbook

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/lightprotocol/token-cookbook-go/internal/rpctest"
	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/ctoken"
)

const (
	lightTransfer            byte = 3
	lightCreateATA           byte = 100
	lightTransfer2           byte = 101
	lightCreateATAIdempotent byte = 102

	tokenAccountLamports = 2_039_280
)

func anchorDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

var (
	anchorCreateTokenPool = anchorDiscriminator("create_token_pool")
	anchorAddTokenPool    = anchorDiscriminator("add_token_pool")
	anchorMintTo          = anchorDiscriminator("mint_to")
	anchorTransfer        = anchorDiscriminator("transfer")
	anchorApprove         = anchorDiscriminator("approve")
	anchorRevoke          = anchorDiscriminator("revoke")
)

type tokenBalance struct {
	program solana.PublicKey
	mint    solana.PublicKey
	owner   solana.PublicKey
	amount  uint64
}

type historyEntry struct {
	signature solana.Signature
	slot      uint64
}

// ledger applies sent transactions to a fake server so recipes that read
// back their own writes can run. It tracks token pools, compressed token
// accounts, and light and SPL token accounts, and rejects overdrafts and
// transfers that do not balance. Inputs are matched to the hashes of the
// validity proofs requested before the transaction.
type ledger struct {
	server *rpctest.Server

	mu         sync.Mutex
	tokens     map[solana.PublicKey]tokenBalance
	cold       map[[32]byte]rpctest.TokenAccount
	pending    []string
	proofsSeen int
	nextLeaf   uint32
	slot       uint64
	onChain    map[solana.PublicKey][]historyEntry
	compressed map[solana.PublicKey][]historyEntry
}

func newLedger(server *rpctest.Server) *ledger {
	l := &ledger{
		server:     server,
		tokens:     map[solana.PublicKey]tokenBalance{},
		cold:       map[[32]byte]rpctest.TokenAccount{},
		slot:       200,
		onChain:    map[solana.PublicKey][]historyEntry{},
		compressed: map[solana.PublicKey][]historyEntry{},
	}
	server.OnSend(l.apply)
	server.Handle("getSignaturesForAddress", l.signaturesForAddress)
	server.Handle("getCompressionSignaturesForOwner", l.compressionSignatures)
	return l
}

// balance returns the amount held by a light, SPL or pool token account.
func (l *ledger) balance(address solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens[address].amount
}

// coldAccounts returns owner's compressed accounts of mint, oldest first.
func (l *ledger) coldAccounts(owner, mint solana.PublicKey) []rpctest.TokenAccount {
	l.mu.Lock()
	defer l.mu.Unlock()
	accounts := make([]rpctest.TokenAccount, 0)
	for _, account := range l.cold {
		if account.Owner.Equals(owner) && account.Mint.Equals(mint) {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].LeafIndex < accounts[j].LeafIndex })
	return accounts
}

func (l *ledger) apply(tx *solana.Transaction) error {
	if len(tx.Signatures) == 0 {
		return fmt.Errorf("unsigned transaction")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.slot++

	keys := tx.Message.AccountKeys
	l.registerPools(keys)

	touched := map[solana.PublicKey]bool{}
	for _, instruction := range tx.Message.Instructions {
		program := keys[instruction.ProgramIDIndex]
		accounts := make([]solana.PublicKey, 0, len(instruction.Accounts))
		for _, index := range instruction.Accounts {
			accounts = append(accounts, keys[index])
		}

		var err error
		switch {
		case program.Equals(solana.SPLAssociatedTokenAccountProgramID):
			err = l.createSPLAccount(accounts)
		case program.Equals(compressedtoken.ProgramID):
			err = l.applyTokenInstruction(accounts, instruction.Data, touched)
		}
		if err != nil {
			return err
		}
	}

	entry := historyEntry{signature: tx.Signatures[0], slot: l.slot}
	for _, key := range keys {
		l.onChain[key] = append(l.onChain[key], entry)
	}
	for owner := range touched {
		l.compressed[owner] = append(l.compressed[owner], entry)
	}
	return nil
}

// registerPools stores pool 0 of every mint whose pool first shows up in a
// transaction.
func (l *ledger) registerPools(keys []solana.PublicKey) {
	for _, mint := range keys {
		pool, _, err := compressedtoken.TokenPoolPDA(mint, 0)
		if err != nil {
			continue
		}
		if _, known := l.tokens[pool]; known {
			continue
		}
		for _, key := range keys {
			if key.Equals(pool) {
				l.setToken(pool, tokenBalance{
					program: solana.TokenProgramID,
					mint:    mint,
					owner:   compressedtoken.CPIAuthorityPDA(),
				})
			}
		}
	}
}

func (l *ledger) applyTokenInstruction(accounts []solana.PublicKey, data []byte, touched map[solana.PublicKey]bool) error {
	if len(data) >= 8 {
		var discriminator [8]byte
		copy(discriminator[:], data[:8])
		switch discriminator {
		case anchorCreateTokenPool, anchorAddTokenPool:
			return nil
		case anchorMintTo:
			return l.mintTo(accounts, data[8:], touched)
		case anchorTransfer:
			if len(data) < 12 {
				return fmt.Errorf("transfer data too short")
			}
			return l.transfer(accounts, data[12:], touched)
		case anchorApprove:
			return l.approve(data, touched)
		case anchorRevoke:
			return l.revoke(touched)
		}
	}
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case lightCreateATA, lightCreateATAIdempotent:
		return l.createLightAccount(accounts, data[0] == lightCreateATAIdempotent)
	case lightTransfer:
		return l.lightTransfer(accounts, data[1:])
	case lightTransfer2:
		return l.transfer2(accounts, data[1:], touched)
	}
	return nil
}

func (l *ledger) mintTo(accounts []solana.PublicKey, data []byte, touched map[solana.PublicKey]bool) error {
	r := &byteReader{data: data}
	recipients := make([]solana.PublicKey, r.length())
	for index := range recipients {
		recipients[index] = r.key()
	}
	amounts := make([]uint64, r.length())
	for index := range amounts {
		amounts[index] = r.u64()
	}
	if r.err != nil {
		return r.err
	}
	if len(amounts) != len(recipients) || len(accounts) < 5 {
		return fmt.Errorf("malformed mint_to")
	}

	mint, pool := accounts[3], accounts[4]
	var total uint64
	for index, recipient := range recipients {
		l.addCold(recipient, mint, amounts[index], nil)
		touched[recipient] = true
		total += amounts[index]
	}
	return l.credit(pool, total)
}

func (l *ledger) transfer(accounts []solana.PublicKey, payload []byte, touched map[solana.PublicKey]bool) error {
	r := &byteReader{data: payload}
	if r.option() {
		r.skip(128)
	}
	mint := r.key()
	if r.option() {
		return fmt.Errorf("delegated transfers are not modeled")
	}
	inputs := r.length()
	for i := uint32(0); i < inputs; i++ {
		r.skip(8)
		if r.option() {
			r.skip(1)
		}
		r.skip(1 + 1 + 4 + 1 + 2)
		if r.option() {
			r.skip(8)
		}
		if r.option() {
			return fmt.Errorf("input tlv is not modeled")
		}
	}

	type output struct {
		owner  solana.PublicKey
		amount uint64
	}
	outputs := make([]output, r.length())
	for index := range outputs {
		outputs[index] = output{owner: r.key(), amount: r.u64()}
		if r.option() {
			r.skip(8)
		}
		r.skip(1)
		if r.option() {
			return fmt.Errorf("output tlv is not modeled")
		}
	}
	isCompress := r.bool()
	var amount uint64
	if r.option() {
		amount = r.u64()
	}
	if r.err != nil {
		return r.err
	}
	if len(accounts) < 11 {
		return fmt.Errorf("malformed transfer")
	}

	spent, err := l.spend(inputs)
	if err != nil {
		return err
	}
	in := sumCold(spent)
	var out uint64
	for _, item := range outputs {
		out += item.amount
	}

	pool, tokenAccount := accounts[9], accounts[10]
	if !pool.Equals(compressedtoken.ProgramID) {
		if isCompress {
			if err := l.debit(tokenAccount, amount); err != nil {
				return err
			}
			if err := l.credit(pool, amount); err != nil {
				return err
			}
			in += amount
		} else {
			if err := l.debit(pool, amount); err != nil {
				return err
			}
			if err := l.credit(tokenAccount, amount); err != nil {
				return err
			}
			out += amount
		}
	}
	if in != out {
		return fmt.Errorf("transfer does not balance: %d in, %d out", in, out)
	}

	for _, account := range spent {
		touched[account.Owner] = true
	}
	for _, item := range outputs {
		l.addCold(item.owner, mint, item.amount, nil)
		touched[item.owner] = true
	}
	return nil
}

func (l *ledger) approve(data []byte, touched map[solana.PublicKey]bool) error {
	// delegate, amount, delegate tree, change tree, no lamports
	if len(data) < 8+43 {
		return fmt.Errorf("approve data too short")
	}
	tail := data[len(data)-43:]
	delegate := solana.PublicKeyFromBytes(tail[:32])
	amount := binary.LittleEndian.Uint64(tail[32:40])

	spent, err := l.spend(uint32(len(l.unproven())))
	if err != nil {
		return err
	}
	if len(spent) == 0 {
		return fmt.Errorf("approve without inputs")
	}
	total := sumCold(spent)
	if total < amount {
		return fmt.Errorf("approve of %d exceeds inputs of %d", amount, total)
	}

	owner, mint := spent[0].Owner, spent[0].Mint
	l.addCold(owner, mint, amount, &delegate)
	if change := total - amount; change > 0 {
		l.addCold(owner, mint, change, nil)
	}
	touched[owner] = true
	return nil
}

func (l *ledger) revoke(touched map[solana.PublicKey]bool) error {
	spent, err := l.spend(uint32(len(l.unproven())))
	if err != nil {
		return err
	}
	if len(spent) == 0 {
		return fmt.Errorf("revoke without inputs")
	}
	for _, account := range spent {
		if account.Delegate == nil {
			return fmt.Errorf("revoke of undelegated account %s", base58.Encode(account.Hash[:]))
		}
	}

	owner := spent[0].Owner
	l.addCold(owner, spent[0].Mint, sumCold(spent), nil)
	touched[owner] = true
	return nil
}

func (l *ledger) transfer2(accounts []solana.PublicKey, data []byte, touched map[solana.PublicKey]bool) error {
	r := &byteReader{data: data}
	// flags, change tree, change owner, output queue, max top up
	r.skip(1 + 1 + 1 + 1 + 1 + 2)
	if r.option() {
		return fmt.Errorf("cpi context is not modeled")
	}
	var compressions []ctoken.Compression
	if r.option() {
		compressions = make([]ctoken.Compression, r.length())
		for index := range compressions {
			var compression ctoken.Compression
			compression.Mode = ctoken.CompressionMode(r.u8())
			compression.Amount = r.u64()
			compression.Mint = r.u8()
			compression.SourceOrRecipient = r.u8()
			compression.Authority = r.u8()
			compression.PoolAccountIndex = r.u8()
			compression.PoolIndex = r.u8()
			compression.Bump = r.u8()
			compressions[index] = compression
		}
	}
	if r.option() {
		r.skip(128)
	}
	inputs := r.length()
	if r.err != nil {
		return r.err
	}

	prefix := 2
	if inputs > 0 {
		prefix = 7
	}
	if len(accounts) < prefix {
		return fmt.Errorf("malformed transfer2")
	}
	packed := accounts[prefix:]
	lookup := func(index uint8) (solana.PublicKey, error) {
		if int(index) >= len(packed) {
			return solana.PublicKey{}, fmt.Errorf("packed account %d out of range", index)
		}
		return packed[index], nil
	}

	spent, err := l.spend(inputs)
	if err != nil {
		return err
	}
	in := sumCold(spent)
	var out uint64
	for _, compression := range compressions {
		account, err := lookup(compression.SourceOrRecipient)
		if err != nil {
			return err
		}
		balance, ok := l.tokens[account]
		if !ok {
			return fmt.Errorf("token account %s does not exist", account)
		}
		viaPool := balance.program.Equals(solana.TokenProgramID)
		var pool solana.PublicKey
		if viaPool {
			if pool, err = lookup(compression.PoolAccountIndex); err != nil {
				return err
			}
		}

		if compression.Mode == ctoken.CompressionModeCompress {
			if err := l.debit(account, compression.Amount); err != nil {
				return err
			}
			if viaPool {
				if err := l.credit(pool, compression.Amount); err != nil {
					return err
				}
			}
			in += compression.Amount
			continue
		}
		if viaPool {
			if err := l.debit(pool, compression.Amount); err != nil {
				return err
			}
		}
		if err := l.credit(account, compression.Amount); err != nil {
			return err
		}
		out += compression.Amount
	}
	if in != out {
		return fmt.Errorf("transfer2 does not balance: %d in, %d out", in, out)
	}

	for _, account := range spent {
		touched[account.Owner] = true
	}
	return nil
}

func (l *ledger) createLightAccount(accounts []solana.PublicKey, idempotent bool) error {
	if len(accounts) < 4 {
		return fmt.Errorf("malformed create associated token account")
	}
	owner, mint, ata := accounts[0], accounts[1], accounts[3]
	if _, exists := l.tokens[ata]; exists {
		if idempotent {
			return nil
		}
		return fmt.Errorf("account %s already in use", ata)
	}
	l.setToken(ata, tokenBalance{program: ctoken.ProgramID, mint: mint, owner: owner})
	return nil
}

func (l *ledger) createSPLAccount(accounts []solana.PublicKey) error {
	if len(accounts) < 4 {
		return fmt.Errorf("malformed create associated token account")
	}
	ata, owner, mint := accounts[1], accounts[2], accounts[3]
	if _, exists := l.tokens[ata]; exists {
		return fmt.Errorf("account %s already in use", ata)
	}
	l.setToken(ata, tokenBalance{program: solana.TokenProgramID, mint: mint, owner: owner})
	return nil
}

func (l *ledger) lightTransfer(accounts []solana.PublicKey, data []byte) error {
	if len(accounts) < 2 || len(data) < 8 {
		return fmt.Errorf("malformed light token transfer")
	}
	source, destination := accounts[0], accounts[1]
	if l.tokens[source].mint != l.tokens[destination].mint {
		return fmt.Errorf("mint mismatch between %s and %s", source, destination)
	}
	amount := binary.LittleEndian.Uint64(data[:8])
	if err := l.debit(source, amount); err != nil {
		return err
	}
	return l.credit(destination, amount)
}

// unproven returns the hashes of proofs requested since the last spend.
func (l *ledger) unproven() []string {
	calls := l.server.Calls("getValidityProof")
	for _, call := range calls[l.proofsSeen:] {
		var params struct {
			Hashes []string `json:"hashes"`
		}
		if err := json.Unmarshal(call, &params); err == nil {
			l.pending = append(l.pending, params.Hashes...)
		}
	}
	l.proofsSeen = len(calls)
	return l.pending
}

// spend removes the next count proven compressed accounts.
func (l *ledger) spend(count uint32) ([]rpctest.TokenAccount, error) {
	pending := l.unproven()
	if int(count) > len(pending) {
		return nil, fmt.Errorf("%d inputs but only %d proven accounts", count, len(pending))
	}

	spent := make([]rpctest.TokenAccount, 0, count)
	hashes := make([][32]byte, 0, count)
	for _, encoded := range pending[:count] {
		decoded, err := base58.Decode(encoded)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("invalid hash %q", encoded)
		}
		var hash [32]byte
		copy(hash[:], decoded)
		account, ok := l.cold[hash]
		if !ok {
			return nil, fmt.Errorf("compressed account %s does not exist", encoded)
		}
		delete(l.cold, hash)
		spent = append(spent, account)
		hashes = append(hashes, hash)
	}
	l.pending = l.pending[count:]
	l.server.RemoveTokenAccounts(hashes...)
	return spent, nil
}

func (l *ledger) addCold(owner, mint solana.PublicKey, amount uint64, delegate *solana.PublicKey) {
	l.nextLeaf++
	var hash [32]byte
	hash[0] = 0xe0
	binary.LittleEndian.PutUint32(hash[1:5], l.nextLeaf)
	account := rpctest.TokenAccount{
		Hash:      hash,
		Owner:     owner,
		Mint:      mint,
		Amount:    amount,
		Delegate:  delegate,
		LeafIndex: l.nextLeaf,
	}
	l.cold[hash] = account
	l.server.AddTokenAccount(account)
}

func (l *ledger) setToken(address solana.PublicKey, balance tokenBalance) {
	l.tokens[address] = balance
	l.server.SetAccount(address, rpctest.Account{
		Owner:    balance.program,
		Lamports: tokenAccountLamports,
		Data:     rpctest.TokenAccountData(balance.mint, balance.owner, balance.amount),
	})
}

func (l *ledger) credit(address solana.PublicKey, amount uint64) error {
	balance, ok := l.tokens[address]
	if !ok {
		return fmt.Errorf("token account %s does not exist", address)
	}
	balance.amount += amount
	l.setToken(address, balance)
	return nil
}

func (l *ledger) debit(address solana.PublicKey, amount uint64) error {
	balance, ok := l.tokens[address]
	if !ok {
		return fmt.Errorf("token account %s does not exist", address)
	}
	if balance.amount < amount {
		return fmt.Errorf("insufficient funds in %s: %d < %d", address, balance.amount, amount)
	}
	balance.amount -= amount
	l.setToken(address, balance)
	return nil
}

func (l *ledger) signaturesForAddress(params json.RawMessage) (any, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(params, &args); err != nil || len(args) == 0 {
		return nil, &rpctest.Error{Code: -32602, Message: "invalid params"}
	}
	var address solana.PublicKey
	if err := json.Unmarshal(args[0], &address); err != nil {
		return nil, &rpctest.Error{Code: -32602, Message: "invalid address"}
	}

	l.mu.Lock()
	entries := append([]historyEntry(nil), l.onChain[address]...)
	l.mu.Unlock()

	result := make([]any, 0, len(entries))
	for index := len(entries) - 1; index >= 0; index-- {
		result = append(result, map[string]any{
			"signature":          entries[index].signature.String(),
			"slot":               entries[index].slot,
			"err":                nil,
			"memo":               nil,
			"blockTime":          nil,
			"confirmationStatus": "confirmed",
		})
	}
	return result, nil
}

func (l *ledger) compressionSignatures(params json.RawMessage) (any, error) {
	var parsed struct {
		Owner solana.PublicKey `json:"owner"`
	}
	if err := json.Unmarshal(params, &parsed); err != nil {
		return nil, &rpctest.Error{Code: -32602, Message: "invalid params"}
	}

	l.mu.Lock()
	entries := append([]historyEntry(nil), l.compressed[parsed.Owner]...)
	slot := l.slot
	l.mu.Unlock()

	items := make([]any, 0, len(entries))
	for index := len(entries) - 1; index >= 0; index-- {
		items = append(items, map[string]any{
			"signature": entries[index].signature.String(),
			"slot":      entries[index].slot,
			"blockTime": 1_700_000_000 + int64(entries[index].slot),
		})
	}
	return map[string]any{
		"context": map[string]any{"slot": slot},
		"value":   map[string]any{"items": items, "cursor": nil},
	}, nil
}

func sumCold(accounts []rpctest.TokenAccount) uint64 {
	var total uint64
	for _, account := range accounts {
		total += account.Amount
	}
	return total
}

// byteReader reads little-endian borsh values and keeps the first error.
type byteReader struct {
	data []byte
	err  error
}

func (r *byteReader) take(n int) []byte {
	if r.err == nil && len(r.data) < n {
		r.err = fmt.Errorf("instruction data too short")
	}
	if r.err != nil {
		return make([]byte, n)
	}
	out := r.data[:n]
	r.data = r.data[n:]
	return out
}

func (r *byteReader) skip(n int) { r.take(n) }

func (r *byteReader) u8() uint8 { return r.take(1)[0] }

func (r *byteReader) bool() bool { return r.u8() == 1 }

func (r *byteReader) option() bool { return r.u8() == 1 }

func (r *byteReader) u32() uint32 { return binary.LittleEndian.Uint32(r.take(4)) }

func (r *byteReader) u64() uint64 { return binary.LittleEndian.Uint64(r.take(8)) }

func (r *byteReader) key() solana.PublicKey {
	return solana.PublicKeyFromBytes(r.take(32))
}

// length reads a u32 vector length, bounded so garbage cannot allocate.
func (r *byteReader) length() uint32 {
	n := r.u32()
	if n > 64 && r.err == nil {
		r.err = fmt.Errorf("vector length %d out of range", n)
	}
	if r.err != nil {
		return 0
	}
	return n
}
