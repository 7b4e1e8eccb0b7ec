// Package hdwallet derives Ethereum-compatible keys and addresses from a
// BIP-39 mnemonic along the BIP-44 path m/44'/60'/0'/0/{index}, generalizing
// the HMAC-SHA512 master/child key tree pattern used for the Ed25519 wallet
// in the Synnergy reference codebase to secp256k1, using go-ethereum's curve
// and address encoding for the final step. This is the "standard
// hierarchical-deterministic derivation" SPEC_FULL.md section 4.2 calls for:
// the address for a given clientID is a pure function of the mnemonic and
// that clientID.
package hdwallet

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha512"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

const hardenedOffset = uint32(0x80000000)

// Ethereum coin type per SLIP-44, and the BIP-44 path segments this wallet
// fixes: purpose=44', coinType=60', account=0', change=0 (external chain).
var (
	purposeIndex  = hardenedOffset + 44
	coinTypeIndex = hardenedOffset + 60
	accountIndex  = hardenedOffset + 0
	changeIndex   = uint32(0)
)

type extendedKey struct {
	key       *big.Int
	chainCode []byte
}

// Wallet wraps a validated mnemonic's master extended key so repeated
// derivations for many client IDs don't re-derive the seed each time.
type Wallet struct {
	master *extendedKey
}

// NewWallet validates the mnemonic and derives its BIP-32 master key.
func NewWallet(mnemonic string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("hdwallet: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")

	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)

	il, ir := sum[:32], sum[32:]
	k := new(big.Int).SetBytes(il)
	if k.Sign() == 0 || k.Cmp(crypto.S256().Params().N) >= 0 {
		return nil, fmt.Errorf("hdwallet: derived master key out of range, unusable seed")
	}

	return &Wallet{master: &extendedKey{key: k, chainCode: ir}}, nil
}

// DerivePrivateKey returns the secp256k1 private key at
// m/44'/60'/0'/0/{addressIndex}.
func (w *Wallet) DerivePrivateKey(addressIndex uint32) (*ecdsa.PrivateKey, error) {
	path := []uint32{purposeIndex, coinTypeIndex, accountIndex, changeIndex, addressIndex}

	k := w.master
	var err error
	for _, idx := range path {
		k, err = deriveChild(k, idx)
		if err != nil {
			return nil, fmt.Errorf("hdwallet: derivation failed at index %d: %w", idx, err)
		}
	}

	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = crypto.S256()
	priv.D = k.key
	priv.PublicKey.X, priv.PublicKey.Y = crypto.S256().ScalarBaseMult(k.key.Bytes())
	return priv, nil
}

// DeriveAddress returns the Ethereum address for a given client ID, used as
// the BIP-44 address index. Deterministic: the same (mnemonic, clientID)
// pair always yields the same address.
func (w *Wallet) DeriveAddress(clientID uint64) (common.Address, error) {
	if clientID > uint64(^uint32(0)>>1) {
		return common.Address{}, fmt.Errorf("hdwallet: clientID %d exceeds non-hardened derivation range", clientID)
	}
	priv, err := w.DerivePrivateKey(uint32(clientID))
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(priv.PublicKey), nil
}

// deriveChild implements BIP-32 CKDpriv for one path segment.
func deriveChild(parent *extendedKey, index uint32) (*extendedKey, error) {
	var data []byte
	if index >= hardenedOffset {
		data = append([]byte{0x00}, leftPad32(parent.key.Bytes())...)
	} else {
		pubX, pubY := crypto.S256().ScalarBaseMult(parent.key.Bytes())
		data = compressPoint(pubX, pubY)
	}
	data = append(data, ser32(index)...)

	mac := hmac.New(sha512.New, parent.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)

	il, ir := sum[:32], sum[32:]
	ilNum := new(big.Int).SetBytes(il)
	n := crypto.S256().Params().N
	if ilNum.Cmp(n) >= 0 {
		return nil, fmt.Errorf("invalid child: IL >= curve order")
	}

	childKey := new(big.Int).Add(ilNum, parent.key)
	childKey.Mod(childKey, n)
	if childKey.Sign() == 0 {
		return nil, fmt.Errorf("invalid child: derived key is zero")
	}

	return &extendedKey{key: childKey, chainCode: ir}, nil
}

func ser32(i uint32) []byte {
	return []byte{byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
}

func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

// compressPoint SEC1-compresses a secp256k1 point, as BIP-32 requires for
// the public-key half of the non-hardened derivation data.
func compressPoint(x, y *big.Int) []byte {
	out := make([]byte, 33)
	if y.Bit(0) == 0 {
		out[0] = 0x02
	} else {
		out[0] = 0x03
	}
	xBytes := x.Bytes()
	copy(out[33-len(xBytes):], xBytes)
	return out
}
