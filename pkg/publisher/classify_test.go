package publisher

import (
	"errors"
	"testing"

	"github.com/certen/independant-validator/pkg/errs"
)

func TestClassifyRevertAlreadyMintedIsBenign(t *testing.T) {
	err := classifyRevert("execution reverted: ERC721: token already minted", false)
	if !errors.Is(err, errs.ErrBenignChainRevert) {
		t.Errorf("expected benign classification, got %v", err)
	}
}

func TestClassifyRevertAlreadyExistsIsBenign(t *testing.T) {
	err := classifyRevert("revert: record already exists", true)
	if !errors.Is(err, errs.ErrBenignChainRevert) {
		t.Errorf("expected benign classification, got %v", err)
	}
}

func TestClassifyRevertPaymentOverflowIsRecoverable(t *testing.T) {
	err := classifyRevert("execution reverted: arithmetic overflow", true)
	if !errors.Is(err, errs.ErrRecoverableChainRevert) {
		t.Errorf("expected recoverable classification, got %v", err)
	}
}

func TestClassifyRevertGenericPaymentIsBenign(t *testing.T) {
	err := classifyRevert("execution reverted: something else entirely", true)
	if !errors.Is(err, errs.ErrBenignChainRevert) {
		t.Errorf("expected generic payment revert treated as benign, got %v", err)
	}
}

func TestClassifyRevertGenericNonPaymentIsFatal(t *testing.T) {
	err := classifyRevert("execution reverted: something else entirely", false)
	if !errors.Is(err, errs.ErrFatalChainError) {
		t.Errorf("expected fatal classification for non-payment generic revert, got %v", err)
	}
}
