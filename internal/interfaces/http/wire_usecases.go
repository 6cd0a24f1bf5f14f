package http

import (
	"github.com/cryptbill/cryptbill/internal/application/invoice/usecases"
)

// allUseCases holds every invoice use case. Types match the return types of
// the use case constructors.
type allUseCases struct {
	createInvoice  *usecases.CreateInvoiceUseCase
	getInvoice     *usecases.GetInvoiceUseCase
	listInvoices   *usecases.ListInvoicesUseCase
	invoiceStats   *usecases.GetInvoiceStatsUseCase
	confirmPayment *usecases.ConfirmPaymentUseCase
	verifyPayment  *usecases.VerifyPaymentUseCase
	spawnRecurring *usecases.SpawnRecurringInvoicesUseCase
	buildReceipt   *usecases.BuildReceiptUseCase
}

// ============================================================
// Section 2: Use cases
// ============================================================

func (c *Container) initUseCases() {
	log := c.log
	repo := c.invoiceRepo

	ucs := &allUseCases{}
	ucs.createInvoice = usecases.NewCreateInvoiceUseCase(repo, c.directory, c.publisher, log.Named("create-invoice"))
	ucs.getInvoice = usecases.NewGetInvoiceUseCase(repo, log)
	ucs.listInvoices = usecases.NewListInvoicesUseCase(repo, log)
	ucs.invoiceStats = usecases.NewGetInvoiceStatsUseCase(repo, log)
	ucs.confirmPayment = usecases.NewConfirmPaymentUseCase(repo, c.publisher, log.Named("confirm-payment"))
	ucs.verifyPayment = usecases.NewVerifyPaymentUseCase(
		repo,
		c.paymentOracle,
		ucs.confirmPayment,
		usecases.VerifyPaymentConfig{
			OracleTimeout: c.cfg.Oracle.Timeout(),
			Concurrency:   c.cfg.Verifier.Concurrency,
			BatchSize:     c.cfg.Verifier.BatchSize,
		},
		log.Named("verify-payment"),
	)
	ucs.spawnRecurring = usecases.NewSpawnRecurringInvoicesUseCase(
		repo,
		ucs.createInvoice,
		c.seriesLocker,
		log.Named("spawn-recurring"),
	)
	ucs.buildReceipt = usecases.NewBuildReceiptUseCase(repo, c.directory, log)

	c.ucs = ucs
}
