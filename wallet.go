package apollo

import (
	"crypto/ed25519"
	"errors"

	"github.com/go-cardano/ctxbuilder/ledger/common"
)

// Wallet abstracts over whatever holds the keys: a raw key pair, a hardware
// device, or nothing at all for watch-only use.
type Wallet interface {
	// Address is where payments to this wallet are sent.
	Address() common.Address
	// SignTxBody witnesses an already-hashed transaction body.
	SignTxBody(txBodyHash common.Blake2b256) (common.VkeyWitness, error)
	// PubKeyHash identifies the payment key controlling Address.
	PubKeyHash() common.Blake2b224
	// StakePubKeyHash identifies the staking key, or the zero hash if this
	// wallet has none.
	StakePubKeyHash() common.Blake2b224
}

// KeyPairWallet signs with a raw Ed25519 private key. Deriving that key from
// a mnemonic, hardware wallet, or other external source is the caller's
// responsibility; this builder only ever consumes the derived key bytes.
type KeyPairWallet struct {
	address    common.Address
	privateKey ed25519.PrivateKey
	stakeKey   ed25519.PrivateKey
}

// NewKeyPairWallet creates a wallet from a raw Ed25519 payment key and address.
func NewKeyPairWallet(addr common.Address, key ed25519.PrivateKey) *KeyPairWallet {
	return &KeyPairWallet{address: addr, privateKey: key}
}

// NewKeyPairWalletWithStakeKey creates a wallet carrying both a payment and a
// staking Ed25519 key, so StakePubKeyHash and stake witnesses resolve.
func NewKeyPairWalletWithStakeKey(addr common.Address, paymentKey, stakeKey ed25519.PrivateKey) *KeyPairWallet {
	return &KeyPairWallet{address: addr, privateKey: paymentKey, stakeKey: stakeKey}
}

func (w *KeyPairWallet) Address() common.Address {
	return w.address
}

func (w *KeyPairWallet) SignTxBody(txBodyHash common.Blake2b256) (common.VkeyWitness, error) {
	if w.privateKey == nil {
		return common.VkeyWitness{}, errors.New("key pair wallet has no payment key")
	}
	return common.VkeyWitness{
		Vkey:      w.privateKey.Public().(ed25519.PublicKey),
		Signature: ed25519.Sign(w.privateKey, txBodyHash.Bytes()),
	}, nil
}

func (w *KeyPairWallet) PubKeyHash() common.Blake2b224 {
	if w.privateKey == nil {
		return common.Blake2b224{}
	}
	return common.Blake2b224Hash(w.privateKey.Public().(ed25519.PublicKey))
}

// StakePubKeyHash returns the zero hash if no stake key was provided.
func (w *KeyPairWallet) StakePubKeyHash() common.Blake2b224 {
	if w.stakeKey == nil {
		return common.Blake2b224{}
	}
	return common.Blake2b224Hash(w.stakeKey.Public().(ed25519.PublicKey))
}

// ExternalWallet knows only an address, never a key. It can build and
// inspect transactions but any attempt to sign fails.
type ExternalWallet struct {
	address common.Address
}

// NewExternalWallet wraps an address for watch-only use.
func NewExternalWallet(addr common.Address) *ExternalWallet {
	return &ExternalWallet{address: addr}
}

func (w *ExternalWallet) Address() common.Address {
	return w.address
}

func (w *ExternalWallet) SignTxBody(_ common.Blake2b256) (common.VkeyWitness, error) {
	return common.VkeyWitness{}, errors.New("external wallet cannot sign transactions")
}

func (w *ExternalWallet) PubKeyHash() common.Blake2b224 {
	return w.address.PaymentKeyHash()
}

func (w *ExternalWallet) StakePubKeyHash() common.Blake2b224 {
	return w.address.StakeKeyHash()
}
