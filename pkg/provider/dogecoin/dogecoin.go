package dogecoin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/keys"
	"github.com/chainsafe/custody-ledger/pkg/provider"
)

const chain = currency.ChainDogecoin

// Adapter reads chain state from BlockCypher and builds P2PKH transactions.
type Adapter struct {
	api           *provider.RESTClient
	token         string
	params        *chaincfg.Params
	keys          keys.Resolver
	caller        *provider.Caller
	feePerKB      int64
	finalityDepth int64
	dropAfter     time.Duration
	pageSize      int
	logger        *zap.Logger
	now           func() time.Time
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a Dogecoin adapter for mainnet.
func New(cfg config.DogecoinConfig, resolver keys.Resolver, logger *zap.Logger) *Adapter {
	return NewWithParams(cfg, &MainNetParams, resolver, logger)
}

// NewWithParams creates an adapter for the given network parameters.
func NewWithParams(cfg config.DogecoinConfig, params *chaincfg.Params, resolver keys.Resolver, logger *zap.Logger) *Adapter {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	feePerKB := cfg.FeePerKB
	if feePerKB < minFeePerKB {
		feePerKB = minFeePerKB
	}
	depth := cfg.FinalityDepth
	if depth <= 0 {
		depth = 6
	}
	dropAfter := cfg.DropAfter
	if dropAfter <= 0 {
		dropAfter = 6 * time.Hour
	}
	return &Adapter{
		api: &provider.RESTClient{
			Chain:   chain,
			BaseURL: cfg.APIURL,
			HTTP:    &http.Client{Timeout: timeout},
		},
		token:         cfg.APIToken,
		params:        params,
		keys:          resolver,
		caller:        provider.NewCaller(chain, cfg.ProviderConfig),
		feePerKB:      feePerKB,
		finalityDepth: depth,
		dropAfter:     dropAfter,
		pageSize:      pageSize,
		logger:        logger.With(zap.String("chain", string(chain))),
		now:           time.Now,
	}
}

func (a *Adapter) Chain() currency.Chain { return chain }

// ValidateAddress decodes a base58check address and checks its network prefix.
func (a *Adapter) ValidateAddress(addr string) error {
	decoded, err := btcutil.DecodeAddress(addr, a.params)
	if err != nil {
		return fmt.Errorf("invalid dogecoin address: %w", err)
	}
	if !decoded.IsForNet(a.params) {
		return fmt.Errorf("invalid dogecoin address: wrong network")
	}
	switch decoded.(type) {
	case *btcutil.AddressPubKeyHash, *btcutil.AddressScriptHash:
		return nil
	default:
		return fmt.Errorf("invalid dogecoin address: unsupported type")
	}
}

func (a *Adapter) NewReceiveKey() (*provider.ReceiveKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	wif, err := btcutil.NewWIF(priv, a.params, true)
	if err != nil {
		return nil, fmt.Errorf("encode wif: %w", err)
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(priv.PubKey().SerializeCompressed()), a.params)
	if err != nil {
		return nil, fmt.Errorf("derive address: %w", err)
	}
	return &provider.ReceiveKey{Address: addr.EncodeAddress(), Secret: wif.String()}, nil
}

func (a *Adapter) path(p string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	if a.token != "" {
		q.Set("token", a.token)
	}
	if enc := q.Encode(); enc != "" {
		return p + "?" + enc
	}
	return p
}

func (a *Adapter) get(ctx context.Context, op, path string, out any) error {
	return a.caller.Do(ctx, op, func(ctx context.Context) error {
		return a.api.Get(ctx, op, path, out)
	})
}

type addressBalance struct {
	Balance int64 `json:"balance"`
}

func (a *Adapter) ConfirmedBalance(ctx context.Context, _ currency.Currency, addr string) (int64, error) {
	var resp addressBalance
	err := a.get(ctx, "balance", a.path("/addrs/"+url.PathEscape(addr)+"/balance", nil), &resp)
	if errors.Is(err, provider.ErrNotFound) {
		return 0, nil
	}
	return resp.Balance, err
}

type fullAddress struct {
	Txs     []chainTx `json:"txs"`
	HasMore bool      `json:"hasMore"`
}

type chainTx struct {
	Hash          string `json:"hash"`
	BlockHeight   int64  `json:"block_height"`
	Confirmations int64  `json:"confirmations"`
	DoubleSpend   bool   `json:"double_spend"`
	Outputs       []struct {
		Value     int64    `json:"value"`
		Addresses []string `json:"addresses"`
	} `json:"outputs"`
}

// IncomingTransactions lists transactions paying addr at or above the cursor
// block height, oldest first. Unconfirmed transactions sort last.
func (a *Adapter) IncomingTransactions(ctx context.Context, _ currency.Currency, addr, cursor string) ([]provider.Transfer, error) {
	var from int64
	if cursor != "" {
		h, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, provider.Permanent(chain, "incoming", fmt.Errorf("bad cursor %q: %w", cursor, err))
		}
		from = h
	}

	q := url.Values{"limit": {strconv.Itoa(a.pageSize)}}
	if from > 0 {
		q.Set("after", strconv.FormatInt(from-1, 10))
	}
	var resp fullAddress
	if err := a.get(ctx, "incoming", a.path("/addrs/"+url.PathEscape(addr)+"/full", q), &resp); err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	txs := resp.Txs
	sort.SliceStable(txs, func(i, j int) bool {
		hi, hj := txs[i].BlockHeight, txs[j].BlockHeight
		if hi <= 0 {
			return false
		}
		if hj <= 0 {
			return true
		}
		return hi < hj
	})

	out := make([]provider.Transfer, 0, len(txs))
	for _, tx := range txs {
		var amount int64
		for _, o := range tx.Outputs {
			for _, to := range o.Addresses {
				if to == addr {
					amount += o.Value
					break
				}
			}
		}
		if amount == 0 {
			continue
		}
		cur := cursor
		if tx.BlockHeight > 0 {
			cur = strconv.FormatInt(tx.BlockHeight, 10)
		}
		out = append(out, provider.Transfer{
			TxID:          tx.Hash,
			Amount:        amount,
			Confirmations: tx.Confirmations,
			Cursor:        cur,
		})
	}
	return out, nil
}

type pushRequest struct {
	Tx string `json:"tx"`
}

type pushResponse struct {
	Tx struct {
		Hash string `json:"hash"`
	} `json:"tx"`
}

// Broadcast pushes the raw transaction. A node reporting the transaction as
// already known counts as success.
func (a *Adapter) Broadcast(ctx context.Context, _ currency.Currency, tx *provider.SignedTx) (string, error) {
	var resp pushResponse
	err := a.caller.Do(ctx, "broadcast", func(ctx context.Context) error {
		return a.api.Post(ctx, "broadcast", a.path("/txs/push", nil), pushRequest{Tx: fmt.Sprintf("%x", tx.Raw)}, &resp)
	})
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "already exists") || strings.Contains(msg, "already in block chain") || strings.Contains(msg, "already known") {
			return tx.TxID, nil
		}
		return "", err
	}
	if resp.Tx.Hash != "" && resp.Tx.Hash != tx.TxID {
		return "", provider.Permanent(chain, "broadcast", fmt.Errorf("provider returned hash %s for %s", resp.Tx.Hash, tx.TxID))
	}
	return tx.TxID, nil
}

// TxStatus looks the transaction up by hash. An unknown transaction is
// dropped once its drop window has passed; a double spend is dropped at once.
func (a *Adapter) TxStatus(ctx context.Context, q provider.StatusQuery) (*provider.TxStatus, error) {
	var tx chainTx
	err := a.get(ctx, "status", a.path("/txs/"+url.PathEscape(q.TxID), nil), &tx)
	if errors.Is(err, provider.ErrNotFound) {
		return &provider.TxStatus{Dropped: !q.NotAfter.IsZero() && a.now().After(q.NotAfter)}, nil
	}
	if err != nil {
		return nil, err
	}
	if tx.DoubleSpend && tx.Confirmations == 0 {
		return &provider.TxStatus{Found: true, Dropped: true, Reason: "double spend"}, nil
	}
	return &provider.TxStatus{
		Found:         true,
		Confirmations: tx.Confirmations,
		Final:         tx.Confirmations >= a.finalityDepth,
	}, nil
}
