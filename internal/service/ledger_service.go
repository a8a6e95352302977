package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/internal/metrics"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerOptions configures the Ledger Engine.
type LedgerOptions struct {
	Catalogue  domain.Catalogue
	FeeAccount *uuid.UUID // owner credited with network and swap fees; nil keeps fees unallocated
}

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	quoteRepo  ports.QuoteRepository
	keyRepo    ports.KeyRepository
	idempCache ports.IdempotencyCache
	transactor ports.DBTransactor
	adapters   ports.AdapterRegistry
	snapshots  ports.SnapshotSource
	catalogue  domain.Catalogue
	feeAccount *uuid.UUID
	metrics    *metrics.LedgerMetrics
	log        zerolog.Logger
	now        func() time.Time
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	quoteRepo ports.QuoteRepository,
	keyRepo ports.KeyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	adapters ports.AdapterRegistry,
	snapshots ports.SnapshotSource,
	opts LedgerOptions,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		quoteRepo:  quoteRepo,
		keyRepo:    keyRepo,
		idempCache: idempCache,
		transactor: transactor,
		adapters:   adapters,
		snapshots:  snapshots,
		catalogue:  opts.Catalogue,
		feeAccount: opts.FeeAccount,
		metrics:    metrics.Ledger(),
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateDeposit credits funds confirmed outside the ledger. A reference that
// was already applied returns the recorded row and changes nothing.
func (s *LedgerServiceImpl) CreateDeposit(ctx context.Context, req ports.DepositRequest) (res *ports.LedgerResult, err error) {
	defer s.observe("deposit", &res, &err)

	cur, err := s.checkAmount(req.Currency, req.Amount)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reference) == "" {
		return nil, apperror.Validation("reference is required for deposits")
	}

	if existing, err := s.replay(ctx, req.Reference); err != nil || existing != nil {
		if err != nil {
			return nil, err
		}
		return replayed(existing, domain.TransactionTypeDeposit)
	}

	to := walletRef{req.OwnerID, cur.Code}
	u, err := s.begin(ctx, []walletRef{to}, map[walletRef]bool{to: true})
	if err != nil {
		return nil, err
	}
	defer u.tx.Rollback(ctx) //nolint:errcheck

	w, err := u.Credit(to, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	now := s.now()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Reference:   req.Reference,
		Type:        domain.TransactionTypeDeposit,
		Status:      domain.TransactionStatusSuccess,
		Amount:      req.Amount,
		Fee:         decimal.Zero,
		Currency:    cur.Code,
		ToWalletID:  &w.ID,
		CreatedAt:   now,
		ProcessedAt: &now,
	}
	return s.finish(ctx, u, txn)
}

// CreateWithdrawal reserves amount plus the network fee and queues an
// external send for the settlement worker.
func (s *LedgerServiceImpl) CreateWithdrawal(ctx context.Context, req ports.WithdrawalRequest) (res *ports.LedgerResult, err error) {
	defer s.observe("withdrawal", &res, &err)
	return s.externalSend(ctx, domain.TransactionTypeWithdraw, req.OwnerID, req.Currency, req.Amount, req.ExternalAddress, req.Reference)
}

// CreateTransfer moves funds to another owner, or to an external address
// like a withdrawal.
func (s *LedgerServiceImpl) CreateTransfer(ctx context.Context, req ports.TransferRequest) (res *ports.LedgerResult, err error) {
	defer s.observe("transfer", &res, &err)

	hasOwner := req.ToOwnerID != nil
	hasAddress := strings.TrimSpace(req.ExternalAddress) != ""
	if hasOwner == hasAddress {
		return nil, apperror.Validation("exactly one of to_owner_id and external_address is required")
	}
	if hasAddress {
		return s.externalSend(ctx, domain.TransactionTypeTransfer, req.OwnerID, req.Currency, req.Amount, req.ExternalAddress, req.Reference)
	}
	if *req.ToOwnerID == req.OwnerID {
		return nil, apperror.Validation("cannot transfer to the same owner")
	}

	cur, err := s.checkAmount(req.Currency, req.Amount)
	if err != nil {
		return nil, err
	}
	reference, res, err := s.reference(ctx, req.Reference, domain.TransactionTypeTransfer)
	if res != nil || err != nil {
		return res, err
	}

	from := walletRef{req.OwnerID, cur.Code}
	to := walletRef{*req.ToOwnerID, cur.Code}
	u, err := s.begin(ctx, []walletRef{from, to}, map[walletRef]bool{to: true})
	if err != nil {
		return nil, err
	}
	defer u.tx.Rollback(ctx) //nolint:errcheck

	src, err := u.Debit(from, req.Amount)
	if err != nil {
		return nil, err
	}
	dst, err := u.Credit(to, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	now := s.now()
	txn := &domain.Transaction{
		ID:           uuid.New(),
		Reference:    reference,
		Type:         domain.TransactionTypeTransfer,
		Status:       domain.TransactionStatusSuccess,
		Amount:       req.Amount,
		Fee:          decimal.Zero,
		Currency:     cur.Code,
		FromWalletID: &src.ID,
		ToWalletID:   &dst.ID,
		CreatedAt:    now,
		ProcessedAt:  &now,
	}
	return s.finish(ctx, u, txn)
}

// CreatePayment debits a card purchase. The provider's reference makes
// redelivered confirmations idempotent.
func (s *LedgerServiceImpl) CreatePayment(ctx context.Context, req ports.PaymentRequest) (res *ports.LedgerResult, err error) {
	defer s.observe("payment", &res, &err)

	cur, err := s.checkAmount(req.Currency, req.Amount)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reference) == "" {
		return nil, apperror.Validation("reference is required for payments")
	}
	if existing, err := s.replay(ctx, req.Reference); err != nil || existing != nil {
		if err != nil {
			return nil, err
		}
		return replayed(existing, domain.TransactionTypePayment)
	}

	from := walletRef{req.OwnerID, cur.Code}
	u, err := s.begin(ctx, []walletRef{from}, nil)
	if err != nil {
		return nil, err
	}
	defer u.tx.Rollback(ctx) //nolint:errcheck

	src, err := u.Debit(from, req.Amount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	txn := &domain.Transaction{
		ID:           uuid.New(),
		Reference:    req.Reference,
		Type:         domain.TransactionTypePayment,
		Status:       domain.TransactionStatusSuccess,
		Amount:       req.Amount,
		Fee:          decimal.Zero,
		Currency:     cur.Code,
		FromWalletID: &src.ID,
		CreatedAt:    now,
		ProcessedAt:  &now,
	}
	return s.finish(ctx, u, txn)
}

// RequestSwapQuote prices a swap from the current snapshot and stores the
// quote until it is settled or expires.
func (s *LedgerServiceImpl) RequestSwapQuote(ctx context.Context, req ports.QuoteRequest) (quote *domain.SwapQuote, err error) {
	defer func() { s.metrics.Observe("swap_quote", resultCode(err)) }()

	source, err := s.checkAmount(req.SourceCurrency, req.FromAmount)
	if err != nil {
		return nil, err
	}
	target, ok := s.catalogue.Lookup(req.TargetCurrency)
	if !ok {
		return nil, apperror.ErrUnsupportedCurrency(req.TargetCurrency)
	}
	if source.Code == target.Code {
		return nil, apperror.Validation("source and target currency must differ")
	}

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load snapshot: %w", err))
	}
	rate, ok := snap.Rate(source.Code, target.Code)
	if !ok {
		return nil, apperror.Validation(fmt.Sprintf("no rate for %s", domain.RateKey(source.Code, target.Code)))
	}

	toAmount := req.FromAmount.Mul(rate).RoundDown(target.Decimals)
	if !toAmount.IsPositive() {
		return nil, apperror.Validation("amount too small to quote")
	}
	fee := req.FromAmount.Mul(snap.SwapFeeRate).RoundUp(source.Decimals)

	now := s.now()
	quote = &domain.SwapQuote{
		ID:             uuid.New(),
		OwnerID:        req.OwnerID,
		SourceCurrency: source.Code,
		TargetCurrency: target.Code,
		FromAmount:     req.FromAmount,
		ToAmount:       toAmount,
		Fee:            fee,
		Rate:           rate,
		ExpiresAt:      now.Add(snap.QuoteTTL),
		CreatedAt:      now,
	}
	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create quote: %w", err))
	}
	return quote, nil
}

// SettleSwapQuote consumes a quote: source debit, target credit, fee,
// transaction record and quote deletion commit together or not at all.
func (s *LedgerServiceImpl) SettleSwapQuote(ctx context.Context, quoteID, ownerID uuid.UUID) (txn *domain.Transaction, err error) {
	defer func() { s.metrics.Observe("swap_settle", resultCode(err)) }()

	// Peek at the quote to learn which wallets the unit has to lock.
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	quote, err := s.quoteRepo.GetForUpdate(ctx, dbTx, quoteID)
	dbTx.Rollback(ctx) //nolint:errcheck
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get quote: %w", err))
	}
	if quote == nil || quote.OwnerID != ownerID {
		return nil, apperror.ErrQuoteNotFound()
	}
	if quote.IsExpired(s.now()) {
		return nil, apperror.ErrQuoteExpired()
	}

	from := walletRef{ownerID, quote.SourceCurrency}
	to := walletRef{ownerID, quote.TargetCurrency}
	refs := []walletRef{from, to}
	create := map[walletRef]bool{to: true}
	fee := s.feeRef(quote.SourceCurrency, quote.Fee)
	if fee != nil {
		refs = append(refs, *fee)
		create[*fee] = true
	}

	u, err := s.begin(ctx, refs, create)
	if err != nil {
		return nil, err
	}
	defer u.tx.Rollback(ctx) //nolint:errcheck

	// Re-read under the unit's lock: a concurrent settlement may have won.
	quote, err = s.quoteRepo.GetForUpdate(ctx, u.tx, quoteID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock quote: %w", err))
	}
	if quote == nil || quote.OwnerID != ownerID {
		return nil, apperror.ErrQuoteNotFound()
	}
	if quote.IsExpired(s.now()) {
		return nil, apperror.ErrQuoteExpired()
	}

	src, err := u.Debit(from, quote.SourceDebit())
	if err != nil {
		return nil, err
	}
	dst, err := u.Credit(to, quote.ToAmount)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if fee != nil {
		if _, err := u.Credit(*fee, quote.Fee); err != nil {
			return nil, apperror.InternalError(err)
		}
	}

	now := s.now()
	targetCurrency := quote.TargetCurrency
	targetAmount := quote.ToAmount
	txn = &domain.Transaction{
		ID:             uuid.New(),
		Reference:      "swap-" + quote.ID.String(),
		Type:           domain.TransactionTypeExchange,
		Status:         domain.TransactionStatusSuccess,
		Amount:         quote.FromAmount,
		Fee:            quote.Fee,
		Currency:       quote.SourceCurrency,
		FromWalletID:   &src.ID,
		ToWalletID:     &dst.ID,
		TargetCurrency: &targetCurrency,
		TargetAmount:   &targetAmount,
		CreatedAt:      now,
		ProcessedAt:    &now,
	}
	if err := s.RecordTransaction(ctx, u, txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			return nil, apperror.ErrQuoteNotFound()
		}
		return nil, err
	}
	if err := s.quoteRepo.Delete(ctx, u.tx, quote.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("delete quote: %w", err))
	}
	if err := s.commit(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("quote_id", quote.ID.String()).
		Str("owner_id", ownerID.String()).
		Str("from", quote.FromAmount.String()+" "+quote.SourceCurrency).
		Str("to", quote.ToAmount.String()+" "+quote.TargetCurrency).
		Msg("swap settled")
	return txn, nil
}

// ResubmitFailed re-queues a failed external send. The original row stays
// FAILED and points at the new PENDING row; the reservation carries over.
func (s *LedgerServiceImpl) ResubmitFailed(ctx context.Context, txID uuid.UUID, reference string) (txn *domain.Transaction, err error) {
	defer func() { s.metrics.Observe("resubmit", resultCode(err)) }()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	orig, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, txID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if orig == nil {
		return nil, apperror.ErrNotFound("Transaction")
	}
	if !orig.IsResolvable() {
		return nil, apperror.ErrNotResolvable()
	}
	if strings.TrimSpace(reference) == "" {
		reference = domain.NewReference(orig.Type)
	}

	now := s.now()
	txn = &domain.Transaction{
		ID:              uuid.New(),
		Reference:       reference,
		Type:            orig.Type,
		Status:          domain.TransactionStatusPending,
		Amount:          orig.Amount,
		Fee:             orig.Fee,
		Currency:        orig.Currency,
		FromWalletID:    orig.FromWalletID,
		ExternalAddress: orig.ExternalAddress,
		External:        true,
		RetryOf:         &orig.ID,
		CreatedAt:       now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			return nil, apperror.ErrDuplicateReference()
		}
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}
	ok, err := s.txRepo.MarkResolved(ctx, dbTx, orig.ID, txn.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark resolved: %w", err))
	}
	if !ok {
		return nil, apperror.ErrNotResolvable()
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("retry_of", orig.ID.String()).
		Msg("failed send re-queued")
	return txn, nil
}

// ReverseFailed refunds the reservation of a failed external send to the
// sender and records the refund as a deposit.
func (s *LedgerServiceImpl) ReverseFailed(ctx context.Context, txID uuid.UUID) (txn *domain.Transaction, err error) {
	defer func() { s.metrics.Observe("reverse", resultCode(err)) }()

	orig, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if orig == nil {
		return nil, apperror.ErrNotFound("Transaction")
	}
	if !orig.IsResolvable() {
		return nil, apperror.ErrNotResolvable()
	}
	sender, err := s.walletRepo.GetByID(ctx, *orig.FromWalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if sender == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	to := walletRef{sender.OwnerID, sender.Currency}
	refs := []walletRef{to}
	fee := s.feeRef(orig.Currency, orig.Fee)
	if fee != nil {
		refs = append(refs, *fee)
	}
	u, err := s.begin(ctx, refs, nil)
	if err != nil {
		return nil, err
	}
	defer u.tx.Rollback(ctx) //nolint:errcheck

	// The row lock serialises concurrent reversals and resubmits.
	locked, err := s.txRepo.GetByIDForUpdate(ctx, u.tx, txID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if locked == nil || !locked.IsResolvable() {
		return nil, apperror.ErrNotResolvable()
	}

	if fee != nil {
		if _, err := u.Debit(*fee, orig.Fee); err != nil {
			return nil, err
		}
	}
	dst, err := u.Credit(to, orig.Reserved())
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	now := s.now()
	txn = &domain.Transaction{
		ID:          uuid.New(),
		Reference:   domain.ReversalReference(orig.ID),
		Type:        domain.TransactionTypeDeposit,
		Status:      domain.TransactionStatusSuccess,
		Amount:      orig.Reserved(),
		Fee:         decimal.Zero,
		Currency:    orig.Currency,
		ToWalletID:  &dst.ID,
		RetryOf:     &orig.ID,
		CreatedAt:   now,
		ProcessedAt: &now,
	}
	if err := s.RecordTransaction(ctx, u, txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			return nil, apperror.ErrNotResolvable()
		}
		return nil, err
	}
	ok, err := s.txRepo.MarkResolved(ctx, u.tx, orig.ID, txn.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark resolved: %w", err))
	}
	if !ok {
		return nil, apperror.ErrNotResolvable()
	}
	if err := s.commit(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("reversed", orig.ID.String()).
		Str("amount", txn.Amount.String()).
		Msg("failed send reversed")
	return txn, nil
}

// GetTransaction returns one ledger row.
func (s *LedgerServiceImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("Transaction")
	}
	return txn, nil
}

// externalSend is the shared path of withdrawals and external transfers:
// validate the address, debit amount+fee, credit the fee account, and record
// a PENDING external row.
func (s *LedgerServiceImpl) externalSend(ctx context.Context, typ domain.TransactionType, ownerID uuid.UUID, currency string, amount decimal.Decimal, address, reference string) (*ports.LedgerResult, error) {
	cur, err := s.checkAmount(currency, amount)
	if err != nil {
		return nil, err
	}
	if !cur.OnChain() {
		return nil, apperror.ErrAdapterNotRegistered(cur.Code)
	}
	adapter, err := s.adapters.ForCurrency(cur.Code)
	if err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	if err := adapter.ValidateAddress(address); err != nil {
		return nil, apperror.ErrInvalidAddress(err)
	}

	reference, res, err := s.reference(ctx, reference, typ)
	if res != nil || err != nil {
		return res, err
	}

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load snapshot: %w", err))
	}
	networkFee := snap.NetworkFee(cur.Code)

	from := walletRef{ownerID, cur.Code}
	refs := []walletRef{from}
	var create map[walletRef]bool
	fee := s.feeRef(cur.Code, networkFee)
	if fee != nil {
		refs = append(refs, *fee)
		create = map[walletRef]bool{*fee: true}
	}

	u, err := s.begin(ctx, refs, create)
	if err != nil {
		return nil, err
	}
	defer u.tx.Rollback(ctx) //nolint:errcheck

	src, err := u.Debit(from, amount.Add(networkFee))
	if err != nil {
		return nil, err
	}
	if fee != nil {
		if _, err := u.Credit(*fee, networkFee); err != nil {
			return nil, apperror.InternalError(err)
		}
	}

	txn := &domain.Transaction{
		ID:              uuid.New(),
		Reference:       reference,
		Type:            typ,
		Status:          domain.TransactionStatusPending,
		Amount:          amount,
		Fee:             networkFee,
		Currency:        cur.Code,
		FromWalletID:    &src.ID,
		ExternalAddress: &address,
		External:        true,
		CreatedAt:       s.now(),
	}
	return s.finish(ctx, u, txn)
}

// finish records txn, commits the unit and caches the reference. A
// reference recorded concurrently turns into a replay of the winner.
func (s *LedgerServiceImpl) finish(ctx context.Context, u *ledgerUnit, txn *domain.Transaction) (*ports.LedgerResult, error) {
	if err := s.RecordTransaction(ctx, u, txn); err != nil {
		if !errors.Is(err, domain.ErrDuplicateReference) {
			return nil, err
		}
		u.tx.Rollback(ctx) //nolint:errcheck
		existing, err := s.txRepo.GetByReference(ctx, txn.Reference)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("get transaction by reference: %w", err))
		}
		if existing == nil {
			return nil, apperror.ErrDuplicateReference()
		}
		return replayed(existing, txn.Type)
	}
	if err := s.commit(ctx, u); err != nil {
		return nil, err
	}
	s.remember(ctx, txn)

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("type", string(txn.Type)).
		Str("status", string(txn.Status)).
		Str("currency", txn.Currency).
		Str("amount", txn.Amount.String()).
		Str("fee", txn.Fee.String()).
		Msg("ledger transaction recorded")

	return &ports.LedgerResult{Transaction: txn}, nil
}

// reference resolves an optional caller reference: a new one is generated
// when empty, and a used one yields the replayed result.
func (s *LedgerServiceImpl) reference(ctx context.Context, reference string, typ domain.TransactionType) (string, *ports.LedgerResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return domain.NewReference(typ), nil, nil
	}
	existing, err := s.replay(ctx, reference)
	if err != nil {
		return "", nil, err
	}
	if existing != nil {
		res, err := replayed(existing, typ)
		return "", res, err
	}
	return reference, nil, nil
}

// checkAmount resolves currency and validates amount against its decimals.
func (s *LedgerServiceImpl) checkAmount(code string, amount decimal.Decimal) (domain.Currency, error) {
	cur, ok := s.catalogue.Lookup(code)
	if !ok {
		return domain.Currency{}, apperror.ErrUnsupportedCurrency(code)
	}
	if err := cur.CheckAmount(amount); err != nil {
		if errors.Is(err, domain.ErrNonPositiveAmount) {
			return domain.Currency{}, apperror.ErrInvalidAmount()
		}
		return domain.Currency{}, apperror.Validation(fmt.Sprintf("%s supports at most %d decimal places", cur.Code, cur.Decimals))
	}
	return cur, nil
}

// feeRef names the fee account wallet when fees are allocated and non-zero.
func (s *LedgerServiceImpl) feeRef(currency string, fee decimal.Decimal) *walletRef {
	if s.feeAccount == nil || !fee.IsPositive() {
		return nil
	}
	return &walletRef{*s.feeAccount, currency}
}

func (s *LedgerServiceImpl) observe(op string, res **ports.LedgerResult, err *error) {
	if *err == nil && *res != nil && (*res).Replayed {
		s.metrics.RecordReplay(op)
	}
	s.metrics.Observe(op, resultCode(*err))
}

func resultCode(err error) string {
	if err == nil {
		return "ok"
	}
	return apperror.CodeOf(err)
}
