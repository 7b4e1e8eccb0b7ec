// Command pipeline is the stage dispatcher for the rodachain data pipeline
// (SPEC_FULL.md section 6): one invocation runs exactly one stage, against
// one {environment, date, datasetType} triple, within an optional timeout
// budget, in the bootstrapping style of the teacher's own main.go (flag-based
// CLI, eager client construction, explicit exit codes keyed off the error
// taxonomy rather than a bare os.Exit(1)).
package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/certen/independant-validator/pkg/addresssync"
	"github.com/certen/independant-validator/pkg/config"
	"github.com/certen/independant-validator/pkg/database"
	"github.com/certen/independant-validator/pkg/errs"
	"github.com/certen/independant-validator/pkg/ethereum"
	"github.com/certen/independant-validator/pkg/extract"
	"github.com/certen/independant-validator/pkg/hdwallet"
	"github.com/certen/independant-validator/pkg/metrics"
	"github.com/certen/independant-validator/pkg/notify"
	"github.com/certen/independant-validator/pkg/objectstore"
	"github.com/certen/independant-validator/pkg/publisher"
	"github.com/certen/independant-validator/pkg/relational"
	"github.com/certen/independant-validator/pkg/scoring"
	"github.com/certen/independant-validator/pkg/transform"
	"github.com/certen/independant-validator/pkg/tribu"
)

// routeIDCounterName is the single global counter every source family
// shares; per-source-family disjointness comes from the ID prefix, not a
// separate counter per source.
const routeIDCounterName = "RouteID"

func main() {
	var (
		stage       = flag.String("stage", "", "extract|transform|addresssync|routepublisher|creditpublisher|paymentpublisher|scoringengine|scorereturn")
		environment = flag.String("environment", "", "staging|production (overrides PIPELINE_ENVIRONMENT)")
		date        = flag.String("date", "", "YYYY-MM-DD; defaults to UTC yesterday")
		datasetType = flag.String("dataset-type", "roda", "roda|guajira")
		timeout     = flag.Float64("timeout", 120, "seconds this invocation is allowed to run")
	)
	flag.Parse()

	if *stage == "" {
		fmt.Fprintln(os.Stderr, "error: -stage is required")
		flag.Usage()
		os.Exit(1)
	}
	if *date == "" {
		*date = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *environment != "" {
		cfg.Environment = *environment
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, time.Duration(*timeout*float64(time.Second)))
	defer cancelTimeout()

	n, err := run(ctx, cfg, *stage, *date, *datasetType, *timeout)
	switch {
	case err == nil:
		log.Printf("[pipeline] stage %s completed: %d records", *stage, n)
		os.Exit(0)
	case errors.Is(err, errs.ErrBudgetExhausted):
		log.Printf("[pipeline] stage %s exited with a partial batch (%d records) on budget exhaustion: %v", *stage, n, err)
		os.Exit(0)
	default:
		log.Printf("[pipeline] stage %s failed: %v", *stage, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, stage, date, source string, timeoutSeconds float64) (int, error) {
	reg := metrics.New()
	reg.Serve(cfg.MetricsAddr)
	defer reg.Shutdown(context.Background())

	store, err := objectstore.NewClient(ctx, cfg.ObjectStoreBucket, cfg.ObjectStoreCredentialsFile)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}
	defer store.Close()

	notifier, err := notify.NewClient(ctx, &notify.ClientConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentials,
		Enabled:         cfg.NotifyEnabled,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}
	defer notifier.Close()

	switch stage {
	case "extract":
		return metrics.ObserveStage(reg, stage, func() (int, error) {
			fleet, err := tribu.NewClient(cfg.FleetAPIBaseURL, cfg.FleetAPIUsername, cfg.FleetAPIPassword)
			if err != nil {
				return 0, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
			}
			return extract.NewStage(fleet, store).Run(ctx, date, source)
		})

	case "transform":
		return metrics.ObserveStage(reg, stage, func() (int, error) {
			counter, closeDB, err := counterService(cfg)
			if err != nil {
				return 0, err
			}
			defer closeDB()
			return transform.NewStage(store, counter, notifier).Run(ctx, cfg.Environment, date, source)
		})

	case "addresssync":
		return metrics.ObserveStage(reg, stage, func() (int, error) {
			relClient, err := relationalClient(cfg)
			if err != nil {
				return 0, err
			}
			wallet, err := hdwallet.NewWallet(cfg.Mnemonic)
			if err != nil {
				return 0, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
			}
			contacts := relational.NewContactRepository(relClient)
			return addresssync.NewStage(contacts, wallet, store).Run(ctx)
		})

	case "routepublisher":
		return metrics.ObserveStage(reg, stage, func() (int, error) {
			pub, from, priv, err := buildPublisher(cfg)
			if err != nil {
				return 0, err
			}
			result, err := publisher.PublishRoutes(ctx, pub, store, cfg.Environment, date, source, from, priv, timeoutSeconds)
			recordPublishOutcome(reg, "route", result, err)
			return result.PublishedCount, err
		})

	case "creditpublisher":
		return metrics.ObserveStage(reg, stage, func() (int, error) {
			n, result, err := runCreditPublisher(ctx, cfg, timeoutSeconds)
			recordPublishOutcome(reg, "credit", result, err)
			return n, err
		})

	case "paymentpublisher":
		return metrics.ObserveStage(reg, stage, func() (int, error) {
			n, result, err := runPaymentPublisher(ctx, cfg, timeoutSeconds)
			recordPublishOutcome(reg, "payment", result, err)
			return n, err
		})

	case "scoringengine":
		return metrics.ObserveStage(reg, stage, func() (int, error) {
			relClient, err := relationalClient(cfg)
			if err != nil {
				return 0, err
			}
			contacts := relational.NewContactRepository(relClient)
			credits := relational.NewCreditRepository(relClient)
			n, err := scoring.NewEngine(contacts, credits, store).Run(ctx, date)
			if err == nil {
				reg.ScoringClients.Set(float64(n))
			}
			return n, err
		})

	case "scorereturn":
		return metrics.ObserveStage(reg, stage, func() (int, error) {
			relClient, err := relationalClient(cfg)
			if err != nil {
				return 0, err
			}
			contacts := relational.NewContactRepository(relClient)
			return scoring.NewScoreReturn(store, contacts).Run(ctx, date)
		})

	default:
		return 0, fmt.Errorf("%w: unknown stage %q", errs.ErrConfiguration, stage)
	}
}

func recordPublishOutcome(reg *metrics.Registry, kind string, result publisher.Result, err error) {
	reg.RecordsPublished.WithLabelValues(kind).Add(float64(result.PublishedCount))
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, errs.ErrBenignChainRevert):
		reg.PublishErrors.WithLabelValues("benign").Inc()
	case errors.Is(err, errs.ErrRecoverableChainRevert):
		reg.PublishErrors.WithLabelValues("recoverable").Inc()
	case errors.Is(err, errs.ErrBudgetExhausted):
		reg.PublishErrors.WithLabelValues("budget_exhausted").Inc()
	default:
		reg.PublishErrors.WithLabelValues("fatal").Inc()
	}
}

func relationalClient(cfg *config.Config) (*relational.Client, error) {
	client, err := relational.NewClient(cfg.RelationalBaseURL, cfg.RelationalAPIKey, cfg.RelationalBaseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}
	return client, nil
}

func counterService(cfg *config.Config) (*database.CounterService, func(), error) {
	dbClient, err := database.NewClient(cfg.CounterDatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return nil, func() {}, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}
	if err := dbClient.MigrateUp(context.Background()); err != nil {
		return nil, func() {}, fmt.Errorf("%w: failed to migrate counter schema: %v", errs.ErrConfiguration, err)
	}

	counter := database.NewCounterService(dbClient,
		database.WithCounterRetries(cfg.CounterMaxRetries, cfg.CounterBackoffBase))
	if err := counter.EnsureFloor(context.Background(), routeIDCounterName, cfg.CounterFloor); err != nil {
		return nil, func() {}, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}
	return counter, func() { dbClient.Close() }, nil
}

// buildPublisher wires the generic publisher.Publisher and resolves the
// operator signing key, shared by all three concrete publisher stages.
func buildPublisher(cfg *config.Config) (*publisher.Publisher, common.Address, *ecdsa.PrivateKey, error) {
	chainClient, err := ethereum.NewClient(cfg.RPCURL(), cfg.ChainID)
	if err != nil {
		return nil, common.Address{}, nil, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}
	contract, err := ethereum.NewContract(chainClient, common.HexToAddress(cfg.ContractAddress), ethereum.PipelineContractABI)
	if err != nil {
		return nil, common.Address{}, nil, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}

	priv, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.OperatorPrivateKeyHex, "0x"))
	if err != nil {
		return nil, common.Address{}, nil, fmt.Errorf("%w: invalid operator private key: %v", errs.ErrConfiguration, err)
	}
	from := ethereum.PublicAddress(priv)

	pub := publisher.New(
		chainClient,
		contract,
		big.NewInt(cfg.ChainID),
		big.NewInt(cfg.MinGasPriceWei),
		cfg.GasEstimateMargin,
		cfg.PublishPollInterval,
		cfg.PublishMaxAttempts,
		cfg.PublishReceiptTimeout,
	)
	return pub, from, priv, nil
}

// addressByClientID builds the clientID -> chain address lookup credit and
// payment publishing both need, from the full contact roster.
func addressByClientID(ctx context.Context, relClient *relational.Client) (map[uint64]string, error) {
	contacts := relational.NewContactRepository(relClient)
	list, err := contacts.ListForScoring(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTransientRemote, err)
	}
	out := make(map[uint64]string, len(list))
	for _, c := range list {
		if c.CeloAddress != "" {
			out[c.ClientID] = c.CeloAddress
		}
	}
	return out, nil
}

func runCreditPublisher(ctx context.Context, cfg *config.Config, timeoutSeconds float64) (int, publisher.Result, error) {
	pub, from, priv, err := buildPublisher(cfg)
	if err != nil {
		return 0, publisher.Result{}, err
	}
	relClient, err := relationalClient(cfg)
	if err != nil {
		return 0, publisher.Result{}, err
	}
	addresses, err := addressByClientID(ctx, relClient)
	if err != nil {
		return 0, publisher.Result{}, err
	}

	credits := relational.NewCreditRepository(relClient)
	pending, err := credits.ListPendingForEnv(ctx, cfg.PublishedFlagColumn())
	if err != nil {
		return 0, publisher.Result{}, fmt.Errorf("%w: %v", errs.ErrTransientRemote, err)
	}

	pendingCredits := make([]publisher.PendingCredit, 0, len(pending))
	for _, p := range pending {
		pendingCredits = append(pendingCredits, publisher.PendingCredit{
			RecordID: p.RecordID,
			Credit:   p.Credit,
			Address:  addresses[p.Credit.ClientID],
		})
	}

	result, err := publisher.PublishCredits(ctx, pub, credits, cfg.PublishedFlagColumn(), pendingCredits, from, priv, timeoutSeconds)
	return result.PublishedCount, result, err
}

func runPaymentPublisher(ctx context.Context, cfg *config.Config, timeoutSeconds float64) (int, publisher.Result, error) {
	pub, from, priv, err := buildPublisher(cfg)
	if err != nil {
		return 0, publisher.Result{}, err
	}
	relClient, err := relationalClient(cfg)
	if err != nil {
		return 0, publisher.Result{}, err
	}

	payments := relational.NewPaymentRepository(relClient)
	pending, err := payments.ListPendingForEnv(ctx, cfg.PublishedFlagColumn(), "PublishedToCelo"+capitalizedEnv(cfg.Environment))
	if err != nil {
		return 0, publisher.Result{}, fmt.Errorf("%w: %v", errs.ErrTransientRemote, err)
	}

	pendingPayments := make([]publisher.PendingPayment, 0, len(pending))
	for _, p := range pending {
		pendingPayments = append(pendingPayments, publisher.PendingPayment{RecordID: p.RecordID, Payment: p.Payment})
	}

	result, err := publisher.PublishPayments(ctx, pub, payments, cfg.PublishedFlagColumn(), pendingPayments, from, priv, timeoutSeconds)
	return result.PublishedCount, result, err
}

func capitalizedEnv(env string) string {
	if env == "" {
		return env
	}
	return strings.ToUpper(env[:1]) + env[1:]
}
