package compressedtoken

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

// CompressedProof is the Groth16 proof in its on-chain compressed form.
type CompressedProof struct {
	A [32]byte
	B [64]byte
	C [32]byte
}

// ProofFromRPC converts an indexer proof. A nil result means every input is
// proven by index.
func ProofFromRPC(proof *rpc.ValidityProof) (*CompressedProof, error) {
	if proof == nil || proof.CompressedProof == nil {
		return nil, nil
	}
	source := proof.CompressedProof
	if len(source.A) != 32 || len(source.B) != 64 || len(source.C) != 32 {
		return nil, fmt.Errorf(
			"invalid compressed proof lengths a=%d b=%d c=%d",
			len(source.A),
			len(source.B),
			len(source.C),
		)
	}
	var out CompressedProof
	copy(out.A[:], source.A)
	copy(out.B[:], source.B)
	copy(out.C[:], source.C)
	return &out, nil
}

// BorshWriter wraps a borsh encoder and keeps the first error.
type BorshWriter struct {
	buffer  bytes.Buffer
	encoder *bin.Encoder
	err     error
}

// NewBorshWriter creates a new BorshWriter.
func NewBorshWriter() *BorshWriter {
	writer := &BorshWriter{}
	writer.encoder = bin.NewBorshEncoder(&writer.buffer)
	return writer
}

func (w *BorshWriter) Raw(value []byte) {
	if w.err == nil {
		w.err = w.encoder.WriteBytes(value, false)
	}
}

func (w *BorshWriter) Vec(value []byte) {
	if w.err == nil {
		w.err = w.encoder.WriteBytes(value, true)
	}
}

func (w *BorshWriter) Length(length int) {
	if w.err == nil {
		w.err = w.encoder.WriteLength(length)
	}
}

func (w *BorshWriter) U8(value uint8) {
	if w.err == nil {
		w.err = w.encoder.WriteUint8(value)
	}
}

func (w *BorshWriter) U16(value uint16) {
	if w.err == nil {
		w.err = w.encoder.WriteUint16(value, bin.LE)
	}
}

func (w *BorshWriter) U32(value uint32) {
	if w.err == nil {
		w.err = w.encoder.WriteUint32(value, bin.LE)
	}
}

func (w *BorshWriter) U64(value uint64) {
	if w.err == nil {
		w.err = w.encoder.WriteUint64(value, bin.LE)
	}
}

func (w *BorshWriter) Bool(value bool) {
	if w.err == nil {
		w.err = w.encoder.WriteBool(value)
	}
}

// Option writes the borsh option tag and reports whether a value follows.
func (w *BorshWriter) Option(present bool) bool {
	if w.err == nil {
		w.err = w.encoder.WriteOption(present)
	}
	return present
}

// String writes a u32 length prefixed UTF-8 string.
func (w *BorshWriter) String(value string) {
	if w.err == nil {
		w.err = w.encoder.WriteString(value)
	}
}

func (w *BorshWriter) PublicKey(key solana.PublicKey) {
	w.Raw(key[:])
}

func (w *BorshWriter) OptionalU8(value *uint8) {
	if w.Option(value != nil) {
		w.U8(*value)
	}
}

func (w *BorshWriter) OptionalU64(value *uint64) {
	if w.Option(value != nil) {
		w.U64(*value)
	}
}

func (w *BorshWriter) OptionalPublicKey(key *solana.PublicKey) {
	if w.Option(key != nil) {
		w.PublicKey(*key)
	}
}

func (w *BorshWriter) Proof(proof CompressedProof) {
	w.Raw(proof.A[:])
	w.Raw(proof.B[:])
	w.Raw(proof.C[:])
}

func (w *BorshWriter) OptionalProof(proof *CompressedProof) {
	if w.Option(proof != nil) {
		w.Proof(*proof)
	}
}

// Bytes returns the encoded data or the first write error.
func (w *BorshWriter) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buffer.Bytes(), nil
}

// BorshReader wraps a borsh decoder and keeps the first error.
type BorshReader struct {
	decoder *bin.Decoder
	err     error
}

// NewBorshReader creates a new BorshReader.
func NewBorshReader(data []byte) *BorshReader {
	return &BorshReader{decoder: bin.NewBorshDecoder(data)}
}

func (r *BorshReader) U8() uint8 {
	if r.err != nil {
		return 0
	}
	var value uint8
	value, r.err = r.decoder.ReadUint8()
	return value
}

func (r *BorshReader) U32() uint32 {
	if r.err != nil {
		return 0
	}
	var value uint32
	value, r.err = r.decoder.ReadUint32(bin.LE)
	return value
}

func (r *BorshReader) U64() uint64 {
	if r.err != nil {
		return 0
	}
	var value uint64
	value, r.err = r.decoder.ReadUint64(bin.LE)
	return value
}

func (r *BorshReader) Bool() bool {
	if r.err != nil {
		return false
	}
	var value bool
	value, r.err = r.decoder.ReadBool()
	return value
}

func (r *BorshReader) Option() bool {
	if r.err != nil {
		return false
	}
	var present bool
	present, r.err = r.decoder.ReadOption()
	return present
}

func (r *BorshReader) StringValue() string {
	if r.err != nil {
		return ""
	}
	var value string
	value, r.err = r.decoder.ReadString()
	return value
}

func (r *BorshReader) PublicKey() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	var raw []byte
	raw, r.err = r.decoder.ReadNBytes(32)
	if r.err != nil {
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(raw)
}

func (r *BorshReader) OptionalPublicKey() *solana.PublicKey {
	if !r.Option() {
		return nil
	}
	key := r.PublicKey()
	if r.err != nil {
		return nil
	}
	return &key
}

// Err returns the first read error.
func (r *BorshReader) Err() error {
	return r.err
}

func writeInputs(w *BorshWriter, inputs []inputTokenData) {
	w.Length(len(inputs))
	for _, input := range inputs {
		w.U64(input.Amount)
		w.OptionalU8(input.DelegateIndex)
		w.U8(input.MerkleContext.TreeIndex)
		w.U8(input.MerkleContext.QueueIndex)
		w.U32(input.MerkleContext.LeafIndex)
		w.Bool(input.MerkleContext.ProveByIndex)
		w.U16(input.RootIndex)
		// lamports and tlv
		w.Option(false)
		w.Option(false)
	}
}

func writeOutputs(w *BorshWriter, outputs []outputTokenData) {
	w.Length(len(outputs))
	for _, output := range outputs {
		w.PublicKey(output.Owner)
		w.U64(output.Amount)
		// lamports
		w.Option(false)
		w.U8(output.TreeIndex)
		// tlv
		w.Option(false)
	}
}

// anchorData prefixes payload with the discriminator. When wrapInVec is set
// the payload is the single Vec<u8> argument of the instruction.
func anchorData(discriminator [8]byte, payload []byte, wrapInVec bool) ([]byte, error) {
	w := NewBorshWriter()
	w.Raw(discriminator[:])
	if wrapInVec {
		w.Vec(payload)
	} else {
		w.Raw(payload)
	}
	data, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}
