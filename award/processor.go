package award

import (
	"context"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/persist"
)

// ProcessorConfig configures a full processing run.
type ProcessorConfig struct {
	// OutputDir receives one output file per store
	OutputDir string

	// Persist sets the save size thresholds shared by all stores
	Persist persist.Options

	// Agency, Contract, Recipient, Transaction override per-store
	// extraction mappings when set
	Agency      AgencyConfig
	Contract    ContractConfig
	Recipient   RecipientConfig
	Transaction TransactionConfig
}

// RowOutcome reports what each store did with one source row.
type RowOutcome struct {
	Agency      map[string]entity.AddResult
	Contract    entity.AddResult
	Recipient   entity.AddResult
	Transaction entity.AddResult
}

// domainStore is the slice of store behavior the processor drives
// uniformly.
type domainStore interface {
	Name() string
	Finalize() int
	Save(ctx context.Context) (*persist.Result, error)
	Stats() *entity.Stats
}

// Processor routes source rows through all four domain stores and
// coordinates finalization and saving.
type Processor struct {
	agencies     *Agency
	contracts    *Contract
	recipients   *Recipient
	transactions *Transaction

	rows int
}

// NewProcessor builds the four stores under cfg.OutputDir. When deps
// carries no validator the default one is installed.
func NewProcessor(cfg ProcessorConfig, deps Deps) (*Processor, error) {
	deps = deps.normalized()
	if deps.Validator == nil {
		deps.Validator = DefaultValidator()
	}

	agencyCfg := cfg.Agency
	agencyCfg.OutputPath = filepath.Join(cfg.OutputDir, "agencies.json")
	agencyCfg.Persist = cfg.Persist
	agencies, err := NewAgency(agencyCfg, deps)
	if err != nil {
		return nil, errors.Wrap(err, "Processor", "NewProcessor", "agency store")
	}

	contractCfg := cfg.Contract
	contractCfg.OutputPath = filepath.Join(cfg.OutputDir, "contracts.json")
	contractCfg.Persist = cfg.Persist
	contracts, err := NewContract(contractCfg, deps)
	if err != nil {
		return nil, errors.Wrap(err, "Processor", "NewProcessor", "contract store")
	}

	recipientCfg := cfg.Recipient
	recipientCfg.OutputPath = filepath.Join(cfg.OutputDir, "recipients.json")
	recipientCfg.Persist = cfg.Persist
	recipients, err := NewRecipient(recipientCfg, deps)
	if err != nil {
		return nil, errors.Wrap(err, "Processor", "NewProcessor", "recipient store")
	}

	transactionCfg := cfg.Transaction
	transactionCfg.OutputPath = filepath.Join(cfg.OutputDir, "transactions.json")
	transactionCfg.Persist = cfg.Persist
	transactions, err := NewTransaction(transactionCfg, deps)
	if err != nil {
		return nil, errors.Wrap(err, "Processor", "NewProcessor", "transaction store")
	}

	return &Processor{
		agencies:     agencies,
		contracts:    contracts,
		recipients:   recipients,
		transactions: transactions,
	}, nil
}

// Process routes one source row through every store. Each store decides
// independently whether the row carries anything for it.
func (p *Processor) Process(row map[string]any) RowOutcome {
	p.rows++
	return RowOutcome{
		Agency:      p.agencies.AddRow(row),
		Contract:    p.contracts.AddRow(row),
		Recipient:   p.recipients.AddRow(row),
		Transaction: p.transactions.AddRow(row),
	}
}

// Finalize resolves pending parent references in every store and
// returns the total number of entities synthesized.
func (p *Processor) Finalize() int {
	total := 0
	for _, st := range p.stores() {
		total += st.Finalize()
	}
	return total
}

// SaveAll persists every store concurrently. Results map store name to
// its save result; on failure the map holds the stores that did
// complete and the error names the first store that failed.
func (p *Processor) SaveAll(ctx context.Context) (map[string]*persist.Result, error) {
	var mu sync.Mutex
	results := make(map[string]*persist.Result)

	g, ctx := errgroup.WithContext(ctx)
	for _, st := range p.stores() {
		g.Go(func() error {
			res, err := st.Save(ctx)
			if err != nil {
				return errors.Wrap(err, "Processor", "SaveAll", st.Name())
			}
			mu.Lock()
			results[st.Name()] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Stats returns per-store processing statistics keyed by store name.
func (p *Processor) Stats() map[string]*entity.Stats {
	out := make(map[string]*entity.Stats, 4)
	for _, st := range p.stores() {
		out[st.Name()] = st.Stats()
	}
	return out
}

// Rows returns the number of rows routed through Process.
func (p *Processor) Rows() int {
	return p.rows
}

// Agencies returns the agency store.
func (p *Processor) Agencies() *Agency { return p.agencies }

// Contracts returns the contract store.
func (p *Processor) Contracts() *Contract { return p.contracts }

// Recipients returns the recipient store.
func (p *Processor) Recipients() *Recipient { return p.recipients }

// Transactions returns the transaction store.
func (p *Processor) Transactions() *Transaction { return p.transactions }

func (p *Processor) stores() []domainStore {
	return []domainStore{p.agencies, p.contracts, p.recipients, p.transactions}
}
