package common

import "github.com/go-cardano/ctxbuilder/cbor"

// TransactionInput identifies a previous output being spent: a transaction
// id and the output index within that transaction. Era-specific input
// types (shelley.ShelleyTransactionInput) have the same shape; it lives here
// because Utxo and the Id()/Index() accessor pattern are era-independent.
type TransactionInput struct {
	TxId        Blake2b256
	OutputIndex uint32
}

func (i TransactionInput) Id() Blake2b256  { return i.TxId }
func (i TransactionInput) Index() uint32   { return i.OutputIndex }

func (i TransactionInput) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{i.TxId, i.OutputIndex})
}
func (i *TransactionInput) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		TxId               Blake2b256
		OutputIndex        uint32
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	i.TxId, i.OutputIndex = parts.TxId, parts.OutputIndex
	return nil
}

// TransactionOutput is implemented by every era's output representation
// (only Babbage/Conway-shaped outputs exist in this single-era builder, but
// the interface keeps Utxo era-agnostic).
type TransactionOutput interface {
	Address() Address
	Amount() uint64
	Assets() *MultiAsset[MultiAssetTypeOutput]
}

// Utxo pairs a resolved input reference with the output it refers to, the
// unit coin selection and balancing operate over.
type Utxo struct {
	Id     TransactionInput
	Output TransactionOutput
}

// VkeyWitness is a single Ed25519 verification-key witness: the public key
// plus its signature over the transaction body hash.
type VkeyWitness struct {
	Vkey      VKey
	Signature Signature
}

func (w VkeyWitness) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{w.Vkey.Bytes(), w.Signature.Bytes()})
}
func (w *VkeyWitness) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Vkey               []byte
		Signature          []byte
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	copy(w.Vkey[:], parts.Vkey)
	copy(w.Signature[:], parts.Signature)
	return nil
}

// BootstrapWitness authorizes spending a Byron-era UTxO: it carries the
// full chain-code/attributes needed to re-derive the Byron address from
// the key, not just a signature. Decode-only support, since this builder
// never constructs new Byron-style inputs.
type BootstrapWitness struct {
	PublicKey  []byte
	Signature  []byte
	ChainCode  []byte
	Attributes []byte
}

func (w BootstrapWitness) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{w.PublicKey, w.Signature, w.ChainCode, w.Attributes})
}
func (w *BootstrapWitness) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		PublicKey          []byte
		Signature          []byte
		ChainCode          []byte
		Attributes         []byte
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	w.PublicKey, w.Signature, w.ChainCode, w.Attributes = parts.PublicKey, parts.Signature, parts.ChainCode, parts.Attributes
	return nil
}
