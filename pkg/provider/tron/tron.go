// Package tron implements the provider adapter for native TRX.
package tron

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fbsobreira/gotron-sdk/pkg/address"
	"github.com/fbsobreira/gotron-sdk/pkg/client"
	"github.com/fbsobreira/gotron-sdk/pkg/proto/api"
	"github.com/fbsobreira/gotron-sdk/pkg/proto/core"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"

	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/keys"
	"github.com/chainsafe/custody-ledger/pkg/provider"
)

const chain = currency.ChainTron

// Node is the subset of the gotron-sdk gRPC client used by the adapter.
type Node interface {
	Transfer(from, to string, amount int64) (*api.TransactionExtention, error)
	Broadcast(tx *core.Transaction) (*api.Return, error)
	GetTransactionInfoByID(id string) (*core.TransactionInfo, error)
	GetNowBlock() (*api.BlockExtention, error)
	GetAccount(addr string) (*core.Account, error)
}

// Adapter signs locally and talks to a full node over gRPC. Incoming
// transfers come from the TronGrid REST index.
type Adapter struct {
	node          Node
	grid          *provider.RESTClient
	keys          keys.Resolver
	caller        *provider.Caller
	finalityDepth int64
	expiration    time.Duration
	pageSize      int
	logger        *zap.Logger
	now           func() time.Time
}

var _ provider.Adapter = (*Adapter)(nil)

// New dials the configured gRPC endpoint.
func New(cfg config.TronConfig, resolver keys.Resolver, logger *zap.Logger) (*Adapter, error) {
	c := client.NewGrpcClient(cfg.GRPCURL)
	if cfg.APIKey != "" {
		c.SetAPIKey(cfg.APIKey)
	}
	if err := c.Start(grpc.WithTransportCredentials(insecure.NewCredentials())); err != nil {
		return nil, fmt.Errorf("failed to start tron grpc client: %w", err)
	}
	return NewWithNode(c, cfg, resolver, logger), nil
}

// NewWithNode creates an adapter over an existing node client.
func NewWithNode(node Node, cfg config.TronConfig, resolver keys.Resolver, logger *zap.Logger) *Adapter {
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["TRON-PRO-API-KEY"] = cfg.APIKey
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	expiration := cfg.TxExpiration
	if expiration <= 0 {
		expiration = 10 * time.Minute
	}
	return &Adapter{
		node: node,
		grid: &provider.RESTClient{
			Chain:   chain,
			BaseURL: cfg.HTTPURL,
			Headers: headers,
			HTTP:    &http.Client{Timeout: timeout},
		},
		keys:          resolver,
		caller:        provider.NewCaller(chain, cfg.ProviderConfig),
		finalityDepth: cfg.FinalityDepth,
		expiration:    expiration,
		pageSize:      pageSize,
		logger:        logger.With(zap.String("chain", string(chain))),
		now:           time.Now,
	}
}

// Stop closes the gRPC connection when the node supports it.
func (a *Adapter) Stop() {
	if s, ok := a.node.(interface{ Stop() }); ok {
		s.Stop()
	}
}

func (a *Adapter) Chain() currency.Chain { return chain }

// ValidateAddress checks the T-prefixed base58check form.
func (a *Adapter) ValidateAddress(addr string) error {
	if len(addr) != 34 || !strings.HasPrefix(addr, "T") {
		return fmt.Errorf("invalid tron address: must be 34 characters starting with T")
	}
	if _, err := address.Base58ToAddress(addr); err != nil {
		return fmt.Errorf("invalid tron address: %w", err)
	}
	return nil
}

func (a *Adapter) NewReceiveKey() (*provider.ReceiveKey, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	addr := address.PubkeyToAddress(priv.PublicKey)
	return &provider.ReceiveKey{
		Address: addr.String(),
		Secret:  hex.EncodeToString(crypto.FromECDSA(priv)),
	}, nil
}

func (a *Adapter) ConfirmedBalance(ctx context.Context, cur currency.Currency, addr string) (int64, error) {
	if !cur.IsNative() {
		return 0, provider.Permanent(chain, "balance", fmt.Errorf("token %s not supported on tron", cur.Symbol))
	}
	var balance int64
	err := a.caller.Do(ctx, "balance", func(context.Context) error {
		acc, err := a.node.GetAccount(addr)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "not found") {
				balance = 0
				return nil
			}
			return provider.Transient(chain, "balance", err)
		}
		balance = acc.GetBalance()
		return nil
	})
	return balance, err
}

// Sign creates a TRX transfer through the node, stamps the configured
// expiration and signs it with the hot wallet key.
func (a *Adapter) Sign(ctx context.Context, req provider.SendRequest) (*provider.SignedTx, error) {
	if !req.Currency.IsNative() {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("token %s not supported on tron", req.Currency.Symbol))
	}
	if req.Amount <= 0 {
		return nil, provider.Rejected(chain, "sign", errors.New("amount must be positive"))
	}
	if err := a.ValidateAddress(req.To); err != nil {
		return nil, provider.Rejected(chain, "sign", err)
	}
	secret, err := a.keys.Resolve(req.From)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("resolve hot wallet key: %w", err))
	}
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(secret, "0x"))
	if err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("parse hot wallet key: %w", err))
	}
	from := address.PubkeyToAddress(priv.PublicKey).String()

	var ext *api.TransactionExtention
	err = a.caller.Do(ctx, "create_transfer", func(context.Context) error {
		var err error
		ext, err = a.node.Transfer(from, req.To, req.Amount)
		if err != nil {
			return provider.Transient(chain, "create_transfer", err)
		}
		if ext == nil || ext.Transaction == nil || ext.Transaction.RawData == nil {
			return provider.Permanent(chain, "create_transfer", errors.New("empty transaction"))
		}
		if r := ext.GetResult(); r != nil && r.Code != api.Return_SUCCESS {
			return provider.Rejected(chain, "create_transfer", fmt.Errorf("%s: %s", r.Code, string(r.Message)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tx := ext.Transaction
	notAfter := a.now().Add(a.expiration)
	tx.RawData.Expiration = notAfter.UnixMilli()

	txid, err := signTransaction(tx, priv)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", err)
	}
	raw, err := proto.Marshal(tx)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("serialize transaction: %w", err))
	}
	return &provider.SignedTx{TxID: txid, Raw: raw, NotAfter: notAfter}, nil
}

// signTransaction signs sha256(raw_data) and returns the transaction id.
func signTransaction(tx *core.Transaction, priv *ecdsa.PrivateKey) (string, error) {
	rawData, err := proto.Marshal(tx.GetRawData())
	if err != nil {
		return "", fmt.Errorf("marshal raw data: %w", err)
	}
	hash := sha256.Sum256(rawData)
	sig, err := crypto.Sign(hash[:], priv)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	tx.Signature = [][]byte{sig}
	return hex.EncodeToString(hash[:]), nil
}

// Broadcast submits the signed transaction. A duplicate-transaction answer
// means an earlier attempt already reached the network.
func (a *Adapter) Broadcast(ctx context.Context, _ currency.Currency, signed *provider.SignedTx) (string, error) {
	var tx core.Transaction
	if err := proto.Unmarshal(signed.Raw, &tx); err != nil {
		return "", provider.Permanent(chain, "broadcast", fmt.Errorf("decode signed transaction: %w", err))
	}
	err := a.caller.Do(ctx, "broadcast", func(context.Context) error {
		ret, err := a.node.Broadcast(&tx)
		if err != nil && ret == nil {
			return provider.Transient(chain, "broadcast", err)
		}
		if ret.GetResult() || ret.GetCode() == api.Return_SUCCESS {
			return nil
		}
		return classifyReturn(ret)
	})
	if err != nil {
		return "", err
	}
	return signed.TxID, nil
}

func classifyReturn(ret *api.Return) error {
	err := fmt.Errorf("%s: %s", ret.GetCode(), string(ret.GetMessage()))
	switch ret.GetCode() {
	case api.Return_DUP_TRANSACTION_ERROR:
		return nil
	case api.Return_SERVER_BUSY, api.Return_NO_CONNECTION, api.Return_NOT_ENOUGH_EFFECTIVE_CONNECTION, api.Return_BLOCK_UNSOLIDIFIED:
		return provider.Transient(chain, "broadcast", err)
	default:
		return provider.Rejected(chain, "broadcast", err)
	}
}

// TxStatus reads the transaction receipt. Final requires the configured
// number of blocks on top, which covers Tron's solidification depth.
func (a *Adapter) TxStatus(ctx context.Context, q provider.StatusQuery) (*provider.TxStatus, error) {
	var info *core.TransactionInfo
	err := a.caller.Do(ctx, "status", func(context.Context) error {
		var err error
		info, err = a.node.GetTransactionInfoByID(q.TxID)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "not found") {
				info = nil
				return nil
			}
			return provider.Transient(chain, "status", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if info == nil || info.GetBlockNumber() == 0 {
		return &provider.TxStatus{
			Dropped: !q.NotAfter.IsZero() && a.now().After(q.NotAfter),
		}, nil
	}

	head, err := a.headBlock(ctx)
	if err != nil {
		return nil, err
	}
	st := &provider.TxStatus{Found: true, Confirmations: max(head-info.GetBlockNumber(), 0)}
	if info.GetResult() == core.TransactionInfo_FAILED {
		st.Failed = true
		st.Reason = string(info.GetResMessage())
	}
	st.Final = !st.Failed && st.Confirmations >= a.finalityDepth
	return st, nil
}

func (a *Adapter) headBlock(ctx context.Context) (int64, error) {
	var head int64
	err := a.caller.Do(ctx, "now_block", func(context.Context) error {
		b, err := a.node.GetNowBlock()
		if err != nil {
			return provider.Transient(chain, "now_block", err)
		}
		head = b.GetBlockHeader().GetRawData().GetNumber()
		return nil
	})
	return head, err
}

type gridTransactions struct {
	Success bool              `json:"success"`
	Data    []gridTransaction `json:"data"`
}

type gridTransaction struct {
	TxID           string `json:"txID"`
	BlockNumber    int64  `json:"blockNumber"`
	BlockTimestamp int64  `json:"block_timestamp"`
	Ret            []struct {
		ContractRet string `json:"contractRet"`
	} `json:"ret"`
	RawData struct {
		Contract []struct {
			Type      string `json:"type"`
			Parameter struct {
				Value struct {
					Amount       int64  `json:"amount"`
					OwnerAddress string `json:"owner_address"`
					ToAddress    string `json:"to_address"`
				} `json:"value"`
			} `json:"parameter"`
		} `json:"contract"`
	} `json:"raw_data"`
}

// IncomingTransactions reads confirmed TRX transfers to addr from TronGrid.
// The cursor is the block timestamp of the last transfer returned; the scan
// restarts at that timestamp and skips transactions already seen in it.
func (a *Adapter) IncomingTransactions(ctx context.Context, cur currency.Currency, addr, cursor string) ([]provider.Transfer, error) {
	if !cur.IsNative() {
		return nil, provider.Permanent(chain, "incoming", fmt.Errorf("token %s not supported on tron", cur.Symbol))
	}
	target, err := address.Base58ToAddress(addr)
	if err != nil {
		return nil, provider.Rejected(chain, "incoming", err)
	}
	targetHex := strings.ToLower(hex.EncodeToString(target.Bytes()))

	since, seen, err := parseCursor(cursor)
	if err != nil {
		return nil, provider.Permanent(chain, "incoming", err)
	}

	path := fmt.Sprintf("/v1/accounts/%s/transactions?only_to=true&only_confirmed=true&order_by=block_timestamp,asc&limit=%d&min_timestamp=%d",
		addr, a.pageSize, since)
	var resp gridTransactions
	err = a.caller.Do(ctx, "incoming", func(ctx context.Context) error {
		return a.grid.Get(ctx, "incoming", path, &resp)
	})
	if err != nil {
		return nil, err
	}

	head, err := a.headBlock(ctx)
	if err != nil {
		return nil, err
	}

	var out []provider.Transfer
	for _, tx := range resp.Data {
		if tx.BlockTimestamp == since && seen[tx.TxID] {
			continue
		}
		if tx.BlockTimestamp > since {
			since, seen = tx.BlockTimestamp, map[string]bool{}
		}
		seen[tx.TxID] = true

		t := provider.Transfer{
			TxID:          tx.TxID,
			Confirmations: max(head-tx.BlockNumber, 0),
			Cursor:        formatCursor(since, seen),
		}
		if len(tx.Ret) > 0 && tx.Ret[0].ContractRet == "SUCCESS" {
			for _, c := range tx.RawData.Contract {
				if c.Type == "TransferContract" && strings.ToLower(c.Parameter.Value.ToAddress) == targetHex {
					t.Amount += c.Parameter.Value.Amount
				}
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// Cursor format: <block timestamp ms>[:<txid>,<txid>...]
func parseCursor(cursor string) (int64, map[string]bool, error) {
	seen := map[string]bool{}
	if cursor == "" {
		return 0, seen, nil
	}
	ts, ids, _ := strings.Cut(cursor, ":")
	since, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("bad cursor %q: %w", cursor, err)
	}
	for _, id := range strings.Split(ids, ",") {
		if id != "" {
			seen[id] = true
		}
	}
	return since, seen, nil
}

func formatCursor(since int64, seen map[string]bool) string {
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strconv.FormatInt(since, 10) + ":" + strings.Join(ids, ",")
}
