package publisher

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/certen/independant-validator/pkg/errs"
	"github.com/certen/independant-validator/pkg/ethereum"
)

// Publisher submits a batch of Records to a single bound contract, one
// transaction per record, serialized end-to-end per spec.md section 5.
type Publisher struct {
	client   *ethereum.Client
	contract *ethereum.Contract

	chainID        *big.Int
	minGasPriceWei *big.Int
	gasMargin      uint64

	pollInterval   time.Duration
	maxAttempts    int
	receiptTimeout time.Duration

	logger *log.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger overrides the default component-prefixed logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// New builds a Publisher. pollInterval/maxAttempts/receiptTimeout govern the
// receipt poll loop of spec.md section 4.3 step 8.
func New(client *ethereum.Client, contract *ethereum.Contract, chainID *big.Int, minGasPriceWei *big.Int, gasMargin uint64, pollInterval time.Duration, maxAttempts int, receiptTimeout time.Duration, opts ...Option) *Publisher {
	p := &Publisher{
		client:         client,
		contract:       contract,
		chainID:        chainID,
		minGasPriceWei: minGasPriceWei,
		gasMargin:      gasMargin,
		pollInterval:   pollInterval,
		maxAttempts:    maxAttempts,
		receiptTimeout: receiptTimeout,
		logger:         log.New(log.Writer(), "[Publisher] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Batch submits records in order, skipping anything sink already reports as
// published, stopping early if elapsed time exceeds 0.9*timeoutSeconds, and
// flushing sink on every exit path (success, budget exhaustion, or fatal
// abort) so the caller never loses progress already made.
//
// Nonce discipline (spec.md section 4.3): fetched once here from the node's
// pending count for `from`, incremented locally only on confirmed
// acceptance. Two Publishers must never run concurrently against the same
// account — nothing here guards against that; it's an operational
// invariant, not a code-level lock.
func (p *Publisher) Batch(ctx context.Context, records []Record, sink Sink, from common.Address, privateKey *ecdsa.PrivateKey, timeoutSeconds float64) (Result, error) {
	nonce, err := p.client.GetNonce(ctx, from)
	if err != nil {
		return Result{}, fmt.Errorf("publisher: failed to fetch starting nonce: %w", err)
	}

	budget := time.Duration(timeoutSeconds * 0.9 * float64(time.Second))
	start := time.Now()
	published := 0

	for _, rec := range records {
		if sink.IsPublished(rec.Key) {
			continue
		}

		if time.Since(start) > budget {
			p.logger.Printf("budget exhausted after %d records; flushing and stopping", published)
			if flushErr := sink.Flush(); flushErr != nil {
				return Result{AllSuccess: false, PublishedCount: published}, flushErr
			}
			return Result{AllSuccess: false, PublishedCount: published}, errs.ErrBudgetExhausted
		}

		outcome, err := p.submitOne(ctx, rec, from, privateKey, nonce)
		switch {
		case err == nil:
			if markErr := sink.MarkPublished(rec.Key, outcome.txHash); markErr != nil {
				sink.Flush()
				return Result{AllSuccess: false, PublishedCount: published}, markErr
			}
			nonce++
			published++

		case errors.Is(err, errs.ErrBenignChainRevert):
			p.logger.Printf("record %s: benign revert (%v); marking published", rec.Key, err)
			if markErr := sink.MarkPublished(rec.Key, ""); markErr != nil {
				sink.Flush()
				return Result{AllSuccess: false, PublishedCount: published}, markErr
			}
			nonce++
			published++

		default:
			p.logger.Printf("record %s: fatal error: %v", rec.Key, err)
			sink.Flush()
			return Result{AllSuccess: false, PublishedCount: published}, err
		}
	}

	if err := sink.Flush(); err != nil {
		return Result{AllSuccess: true, PublishedCount: published}, err
	}
	return Result{AllSuccess: true, PublishedCount: published}, nil
}

type submitOutcome struct {
	txHash string
}

// submitOne runs steps 3-9 of spec.md section 4.3 for a single record,
// including the one-shot recoverable-overflow retry for payments.
func (p *Publisher) submitOne(ctx context.Context, rec Record, from common.Address, privateKey *ecdsa.PrivateKey, nonce uint64) (submitOutcome, error) {
	gasLimit, err := p.contract.EstimateGas(ctx, from, rec.Method, rec.Args...)
	if err != nil {
		return submitOutcome{}, fmt.Errorf("%w: gas estimate for %s failed: %v", errs.ErrFatalChainError, rec.Key, err)
	}
	gasLimit += p.gasMargin

	gasPrice, err := p.contract.GasPriceWithFloor(ctx, p.minGasPriceWei)
	if err != nil {
		return submitOutcome{}, fmt.Errorf("%w: %v", errs.ErrTransientRemote, err)
	}

	tx, err := p.contract.BuildAndSign(p.chainID, privateKey, nonce, gasLimit, gasPrice, rec.Method, rec.Args...)
	if err != nil {
		return submitOutcome{}, fmt.Errorf("%w: %v", errs.ErrFatalChainError, err)
	}

	if err := p.contract.Send(ctx, tx); err != nil {
		return submitOutcome{}, fmt.Errorf("%w: send failed: %v", errs.ErrFatalChainError, err)
	}

	receipt, err := p.contract.PollReceipt(ctx, tx.Hash(), p.pollInterval, p.maxAttempts, p.receiptTimeout)
	if err != nil {
		return submitOutcome{}, fmt.Errorf("%w: %v", errs.ErrFatalChainError, err)
	}

	if receipt.Status == 1 {
		return submitOutcome{txHash: tx.Hash().Hex()}, nil
	}

	reason := p.contract.RevertReason(ctx, from, receipt.BlockNumber, rec.Method, rec.Args...)
	classified := classifyRevert(reason, rec.IsPayment)

	if errors.Is(classified, errs.ErrRecoverableChainRevert) {
		return p.retryWithOutstandingBalance(ctx, rec, from, privateKey, nonce, gasLimit, gasPrice)
	}
	return submitOutcome{}, classified
}

// retryWithOutstandingBalance implements spec.md section 4.3's one
// corrective retry for a payment that reverted on arithmetic overflow:
// re-read the outstanding balance and resubmit with the amount clamped to
// it. Failure of this retry escalates to Fatal.
func (p *Publisher) retryWithOutstandingBalance(ctx context.Context, rec Record, from common.Address, privateKey *ecdsa.PrivateKey, nonce, gasLimit uint64, gasPrice *big.Int) (submitOutcome, error) {
	if rec.CreditID == nil || rec.AmountArgIndex >= len(rec.Args) {
		return submitOutcome{}, fmt.Errorf("%w: payment record %s missing retry metadata", errs.ErrFatalChainError, rec.Key)
	}

	balance, err := p.contract.OutstandingBalance(ctx, from, rec.CreditID)
	if err != nil {
		return submitOutcome{}, fmt.Errorf("%w: failed to re-read outstanding balance for %s: %v", errs.ErrFatalChainError, rec.Key, err)
	}

	correctedArgs := append([]interface{}(nil), rec.Args...)
	correctedArgs[rec.AmountArgIndex] = balance

	tx, err := p.contract.BuildAndSign(p.chainID, privateKey, nonce, gasLimit, gasPrice, rec.Method, correctedArgs...)
	if err != nil {
		return submitOutcome{}, fmt.Errorf("%w: %v", errs.ErrFatalChainError, err)
	}
	if err := p.contract.Send(ctx, tx); err != nil {
		return submitOutcome{}, fmt.Errorf("%w: corrective retry send failed for %s: %v", errs.ErrFatalChainError, rec.Key, err)
	}

	receipt, err := p.contract.PollReceipt(ctx, tx.Hash(), p.pollInterval, p.maxAttempts, p.receiptTimeout)
	if err != nil {
		return submitOutcome{}, fmt.Errorf("%w: %v", errs.ErrFatalChainError, err)
	}
	if receipt.Status != 1 {
		return submitOutcome{}, fmt.Errorf("%w: corrective retry for %s also reverted", errs.ErrFatalChainError, rec.Key)
	}
	return submitOutcome{txHash: tx.Hash().Hex()}, nil
}
