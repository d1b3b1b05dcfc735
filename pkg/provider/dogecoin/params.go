// Package dogecoin implements the provider adapter for DOGE over the
// BlockCypher REST API, with transactions built and signed locally.
package dogecoin

import (
	"github.com/btcsuite/btcd/chaincfg"
)

// MainNetParams carries the Dogecoin mainnet address prefixes.
var MainNetParams = chaincfg.Params{
	Name:             "dogecoin-mainnet",
	PubKeyHashAddrID: 0x1e,
	ScriptHashAddrID: 0x16,
	PrivateKeyID:     0x9e,
	HDCoinType:       3,
}

// TestNetParams carries the Dogecoin testnet address prefixes.
var TestNetParams = chaincfg.Params{
	Name:             "dogecoin-testnet",
	PubKeyHashAddrID: 0x71,
	ScriptHashAddrID: 0xc4,
	PrivateKeyID:     0xf1,
	HDCoinType:       1,
}

const (
	// dustLimit is the smallest change output worth creating (0.01 DOGE).
	dustLimit = 1_000_000
	// minFeePerKB is the network's default minimum relay fee (0.01 DOGE/kB).
	minFeePerKB = 1_000_000

	p2pkhInputSize  = 148
	p2pkhOutputSize = 34
	txOverhead      = 10
)

func estimateSize(inputs, outputs int) int64 {
	return int64(txOverhead + inputs*p2pkhInputSize + outputs*p2pkhOutputSize)
}

func feeFor(size, perKB int64) int64 {
	fee := (size*perKB + 999) / 1000
	return max(fee, minFeePerKB)
}
