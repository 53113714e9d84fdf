package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/idhash"
	"prop-risk-monitor/internal/mt5"
	"prop-risk-monitor/internal/secrets"
	"prop-risk-monitor/internal/storage"
	pgstore "prop-risk-monitor/internal/storage/postgres"
)

// link registers a trading account for surveillance: it verifies the
// investor credentials against the bridge, encrypts the password, and
// writes the account, instance, and optional initial balance rows.
func main() {
	// Parse flags
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	mt5URL := flag.String("mt5-url", "", "MT5 HTTP bridge base URL")
	login := flag.String("login", "", "Trading account login")
	password := flag.String("password", "", "Investor (read-only) password")
	server := flag.String("server", "", "Trading server host")
	accountType := flag.String("account-type", "standard", "Account type: standard, funded, or evaluation")
	initialBalance := flag.Float64("initial-balance", 0, "Initial balance to record (0 to skip)")
	skipVerify := flag.Bool("skip-verify", false, "Skip credential verification against the bridge")
	encryptionKey := flag.String("encryption-key", "", "Investor password encryption secret (or ENCRYPTION_KEY env)")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall operation timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[link] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *login == "" || *password == "" || *server == "" {
		logger.Fatal("--login, --password, and --server are required")
	}

	key := *encryptionKey
	if key == "" {
		key = os.Getenv("ENCRYPTION_KEY")
	}
	box, err := secrets.NewBox(key)
	if err != nil {
		logger.Fatalf("Initialize encryption: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, logger, box, *postgresDSN, *mt5URL, *login, *password, *server, *accountType, *initialBalance, *skipVerify); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, box *secrets.Box,
	postgresDSN, mt5URL, login, password, server, accountType string,
	initialBalance float64, skipVerify bool) error {

	// Verify credentials before recording anything
	if !skipVerify {
		if mt5URL == "" {
			return fmt.Errorf("--mt5-url is required for verification (use --skip-verify to bypass)")
		}
		connector := mt5.NewClient(mt5URL)
		if err := connector.Connect(ctx, login, password, server); err != nil {
			return fmt.Errorf("verify credentials: %w", err)
		}
		logger.Printf("Verified credentials for login %s on %s", login, server)
	}

	envelope, err := box.Encrypt(password)
	if err != nil {
		return fmt.Errorf("encrypt investor password: %w", err)
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	accountID := idhash.ComputeAccountID(login, server)
	instanceID := idhash.ComputeInstanceID(login, server)
	nowMs := time.Now().UnixMilli()

	accounts := pgstore.NewAccountStore(pool)
	if err := accounts.Upsert(ctx, &domain.Account{
		AccountID:   accountID,
		Login:       login,
		Server:      server,
		AccountType: accountType,
		CreatedAt:   nowMs,
		UpdatedAt:   nowMs,
	}); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}

	instances := pgstore.NewInstanceStore(pool)
	if err := instances.Upsert(ctx, &domain.MonitoredInstance{
		InstanceID:            instanceID,
		AccountID:             accountID,
		EncryptedInvestorPass: envelope,
		Status:                domain.StatusActive,
		CreatedAt:             nowMs,
		UpdatedAt:             nowMs,
	}); err != nil {
		return fmt.Errorf("upsert instance: %w", err)
	}

	if initialBalance > 0 {
		balances := pgstore.NewInitialBalanceStore(pool)
		err := balances.Insert(ctx, &domain.InitialBalance{
			AccountID:  accountID,
			Value:      initialBalance,
			RecordedAt: nowMs,
		})
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			logger.Printf("Initial balance already recorded for account %s, leaving it untouched", accountID)
		case err != nil:
			return fmt.Errorf("record initial balance: %w", err)
		default:
			logger.Printf("Recorded initial balance %.2f for account %s", initialBalance, accountID)
		}
	}

	logger.Printf("Linked account %s (instance %s) for monitoring", accountID, instanceID)
	return nil
}
