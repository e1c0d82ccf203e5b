package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Caller performs read-only contract calls. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenMeta is ERC20 metadata. Symbol and Name may be empty for non-standard tokens.
type TokenMeta struct {
	Address  string
	Symbol   string
	Name     string
	Decimals uint8
}

// PairState is the on-chain state of a Uniswap V2 pair.
type PairState struct {
	Address            string
	Token0             TokenMeta
	Token1             TokenMeta
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

// Symbols returns "TOKEN0/TOKEN1".
func (s PairState) Symbols() string {
	return s.Token0.Symbol + "/" + s.Token1.Symbol
}

// Reserve0Units returns reserve0 scaled by token0 decimals.
func (s PairState) Reserve0Units() decimal.Decimal {
	return ScaleAmount(s.Reserve0, s.Token0.Decimals)
}

// Reserve1Units returns reserve1 scaled by token1 decimals.
func (s PairState) Reserve1Units() decimal.Decimal {
	return ScaleAmount(s.Reserve1, s.Token1.Decimals)
}

// ScaleAmount converts a raw token amount into whole units.
func ScaleAmount(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// FetchPairState reads token addresses, token metadata and current reserves of a pair.
// Token metadata is served from cache when present.
func FetchPairState(ctx context.Context, caller Caller, pair common.Address, cache *TokenMetaCache, logger *zap.Logger) (PairState, error) {
	if caller == nil {
		return PairState{}, fmt.Errorf("chain caller is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pairABI, err := V2PairABI()
	if err != nil {
		return PairState{}, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := call(ctx, caller, pair, pairABI, "token0")
	if err != nil {
		return PairState{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return PairState{}, fmt.Errorf("token0: %w", err)
	}

	values, err = call(ctx, caller, pair, pairABI, "token1")
	if err != nil {
		return PairState{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return PairState{}, fmt.Errorf("token1: %w", err)
	}

	values, err = call(ctx, caller, pair, pairABI, "getReserves")
	if err != nil {
		return PairState{}, err
	}
	if len(values) < 3 {
		return PairState{}, fmt.Errorf("getReserves: expected 3 values, got %d", len(values))
	}
	reserve0, err := asBigInt(values[0])
	if err != nil {
		return PairState{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asBigInt(values[1])
	if err != nil {
		return PairState{}, fmt.Errorf("reserve1: %w", err)
	}
	tsLast, ok := values[2].(uint32)
	if !ok {
		return PairState{}, fmt.Errorf("blockTimestampLast: unsupported type %T", values[2])
	}

	state := PairState{
		Address:            pair.Hex(),
		Reserve0:           reserve0,
		Reserve1:           reserve1,
		BlockTimestampLast: tsLast,
	}
	state.Token0 = cachedTokenMeta(ctx, caller, token0, cache, logger)
	state.Token1 = cachedTokenMeta(ctx, caller, token1, cache, logger)
	return state, nil
}

func cachedTokenMeta(ctx context.Context, caller Caller, token common.Address, cache *TokenMetaCache, logger *zap.Logger) TokenMeta {
	if cache != nil {
		if meta, ok := cache.Get(token); ok {
			return meta
		}
	}
	meta, err := FetchTokenMeta(ctx, caller, token, logger)
	if err != nil {
		logger.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
	}
	if cache != nil {
		cache.Set(token, meta)
	}
	return meta
}

func call(ctx context.Context, caller Caller, to common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls. Only decimals is required.
func FetchTokenMeta(ctx context.Context, caller Caller, token common.Address, logger *zap.Logger) (TokenMeta, error) {
	meta := TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("chain caller is nil")
	}

	stringABI, err := erc20String.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := call(ctx, caller, token, stringABI, "decimals")
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	meta.Symbol = textField(ctx, caller, token, "symbol", stringABI, bytes32ABI, logger)
	meta.Name = textField(ctx, caller, token, "name", stringABI, bytes32ABI, logger)
	return meta, nil
}

func textField(ctx context.Context, caller Caller, token common.Address, method string, stringABI, bytes32ABI abi.ABI, logger *zap.Logger) string {
	if values, err := call(ctx, caller, token, stringABI, method); err == nil {
		if s, ok := values[0].(string); ok {
			return s
		}
	}
	values, err := call(ctx, caller, token, bytes32ABI, method)
	if err != nil {
		if logger != nil {
			logger.Debug(method+" call failed", zap.String("token", token.Hex()), zap.Error(err))
		}
		return ""
	}
	s, _ := bytes32ToString(values[0])
	return s
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
