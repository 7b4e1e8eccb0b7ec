package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Contract binds the four chain methods SPEC_FULL.md section 6 names:
// issueCredit, recordPayment, recordRoute, and the read-only
// outstandingBalance, over whatever client.go's Client already gives us for
// ABI packing/unpacking and gas pricing.
type Contract struct {
	client  *Client
	address common.Address
	abi     abi.ABI
}

// NewContract parses abiJSON once and binds it to a deployed address.
func NewContract(client *Client, address common.Address, abiJSON string) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("ethereum: failed to parse contract ABI: %w", err)
	}
	return &Contract{client: client, address: address, abi: parsed}, nil
}

// EstimateGas estimates gas for calling method with params, from the given
// sender address, adding no margin (callers add their own per spec step 3).
func (c *Contract) EstimateGas(ctx context.Context, from common.Address, method string, params ...interface{}) (uint64, error) {
	data, err := c.abi.Pack(method, params...)
	if err != nil {
		return 0, fmt.Errorf("ethereum: failed to pack %s: %w", method, err)
	}
	gas, err := c.client.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &c.address, Data: data})
	if err != nil {
		return 0, fmt.Errorf("ethereum: gas estimate for %s failed: %w", method, err)
	}
	return gas, nil
}

// BuildAndSign builds a transaction calling method with params using a
// caller-supplied nonce and gas price, per spec step 5/6: the publisher
// manages the nonce itself rather than re-reading it per call.
func (c *Contract) BuildAndSign(chainID *big.Int, privateKey *ecdsa.PrivateKey, nonce uint64, gasLimit uint64, gasPrice *big.Int, method string, params ...interface{}) (*types.Transaction, error) {
	data, err := c.abi.Pack(method, params...)
	if err != nil {
		return nil, fmt.Errorf("ethereum: failed to pack %s: %w", method, err)
	}

	tx := types.NewTransaction(nonce, c.address, big.NewInt(0), gasLimit, gasPrice, data)
	signer := types.NewEIP155Signer(chainID)
	signedTx, err := types.SignTx(tx, signer, privateKey)
	if err != nil {
		return nil, fmt.Errorf("ethereum: failed to sign %s transaction: %w", method, err)
	}
	return signedTx, nil
}

// Send submits an already-signed transaction.
func (c *Contract) Send(ctx context.Context, tx *types.Transaction) error {
	if err := c.client.client.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("ethereum: failed to send transaction: %w", err)
	}
	return nil
}

// ErrReceiptNotFound is returned by PollReceipt while the transaction has
// not yet been mined.
var ErrReceiptNotFound = errors.New("ethereum: receipt not found")

// PollReceipt polls for a transaction receipt every pollInterval, up to
// maxAttempts times or until receiptTimeout elapses, matching spec step 8.
func (c *Contract) PollReceipt(ctx context.Context, txHash common.Hash, pollInterval time.Duration, maxAttempts int, receiptTimeout time.Duration) (*types.Receipt, error) {
	deadline := time.Now().Add(receiptTimeout)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("ethereum: receipt poll for %s exceeded timeout of %s", txHash.Hex(), receiptTimeout)
		}

		receipt, err := c.client.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("ethereum: receipt poll for %s failed: %w", txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts", ErrReceiptNotFound, txHash.Hex(), maxAttempts)
}

// OutstandingBalance reads a credit's outstanding balance, used by the
// recoverable-overflow-revert retry path.
func (c *Contract) OutstandingBalance(ctx context.Context, from common.Address, creditID *big.Int) (*big.Int, error) {
	data, err := c.abi.Pack("outstandingBalance", creditID)
	if err != nil {
		return nil, fmt.Errorf("ethereum: failed to pack outstandingBalance: %w", err)
	}
	result, err := c.client.client.CallContract(ctx, ethereum.CallMsg{From: from, To: &c.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("ethereum: outstandingBalance call failed: %w", err)
	}
	outputs, err := c.abi.Unpack("outstandingBalance", result)
	if err != nil {
		return nil, fmt.Errorf("ethereum: failed to unpack outstandingBalance: %w", err)
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("ethereum: unexpected outstandingBalance output shape")
	}
	balance, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("ethereum: outstandingBalance did not return a uint256")
	}
	return balance, nil
}

// RevertReason replays method/params as a read-only call at the block the
// failed transaction was mined in, to recover the revert string a receipt
// alone does not carry. Best-effort: if the node strips the reason, the
// returned error's text is used as-is.
func (c *Contract) RevertReason(ctx context.Context, from common.Address, blockNumber *big.Int, method string, params ...interface{}) string {
	data, err := c.abi.Pack(method, params...)
	if err != nil {
		return ""
	}
	_, callErr := c.client.client.CallContract(ctx, ethereum.CallMsg{From: from, To: &c.address, Data: data}, blockNumber)
	if callErr == nil {
		return ""
	}
	return callErr.Error()
}

// GasPriceWithFloor returns the node's suggested gas price, clamped up to
// minWei if the node's suggestion is lower — the supplemented minimum gas
// price floor from SPEC_FULL.md.
func (c *Contract) GasPriceWithFloor(ctx context.Context, minWei *big.Int) (*big.Int, error) {
	price, err := c.client.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	if price.Cmp(minWei) < 0 {
		return new(big.Int).Set(minWei), nil
	}
	return price, nil
}

// AddressOf returns the bound contract address.
func (c *Contract) AddressOf() common.Address { return c.address }

// PublicAddress returns the Ethereum address for a private key.
func PublicAddress(priv *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(priv.PublicKey)
}
