// Package chain holds the catalog of supported RPC servers: a fixed table of
// built-in chains plus user-defined custom RPC servers.
package chain

import "strconv"

// Server identifies an RPC server by its EVM chain ID.
type Server uint64

const (
	Ethereum   Server = 1
	Optimism   Server = 10
	Cronos     Server = 25
	BNB        Server = 56
	Classic    Server = 61
	BNBTestnet Server = 97
	Gnosis     Server = 100
	Polygon    Server = 137
	Fantom     Server = 250
	IoTeX      Server = 4689
	Klaytn     Server = 8217
	Base       Server = 8453
	Holesky    Server = 17000
	Arbitrum   Server = 42161
	Avalanche  Server = 43114
	Sepolia    Server = 11155111
)

// ChainID returns the numeric chain ID.
func (s Server) ChainID() uint64 { return uint64(s) }

func (s Server) String() string { return strconv.FormatUint(uint64(s), 10) }

// Metadata describes how to reach and present a chain.
type Metadata struct {
	ChainID           uint64 `json:"chainId"`
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	Decimals          uint8  `json:"decimals"`
	RPCURL            string `json:"rpcUrl"`
	ExplorerURL       string `json:"explorerUrl,omitempty"`
	ExplorerAPIURL    string `json:"explorerApiUrl,omitempty"`
	CoinGeckoPlatform string `json:"coingeckoPlatform,omitempty"`
	CoinGeckoCoin     string `json:"coingeckoCoin,omitempty"`
	IsTestnet         bool   `json:"isTestnet"`
	IsCustom          bool   `json:"isCustom"`
}

// Server returns the catalog key for this entry.
func (m Metadata) Server() Server { return Server(m.ChainID) }

var builtin = map[Server]Metadata{
	Ethereum: {
		ChainID: 1, Name: "Ethereum", Symbol: "ETH", Decimals: 18,
		RPCURL:            "https://eth.llamarpc.com",
		ExplorerURL:       "https://etherscan.io",
		ExplorerAPIURL:    "https://api.etherscan.io/api",
		CoinGeckoPlatform: "ethereum", CoinGeckoCoin: "ethereum",
	},
	Optimism: {
		ChainID: 10, Name: "Optimism", Symbol: "ETH", Decimals: 18,
		RPCURL:            "https://mainnet.optimism.io",
		ExplorerURL:       "https://optimistic.etherscan.io",
		ExplorerAPIURL:    "https://api-optimistic.etherscan.io/api",
		CoinGeckoPlatform: "optimistic-ethereum", CoinGeckoCoin: "ethereum",
	},
	Cronos: {
		ChainID: 25, Name: "Cronos", Symbol: "CRO", Decimals: 18,
		RPCURL:            "https://evm.cronos.org",
		ExplorerURL:       "https://cronoscan.com",
		ExplorerAPIURL:    "https://api.cronoscan.com/api",
		CoinGeckoPlatform: "cronos", CoinGeckoCoin: "crypto-com-chain",
	},
	BNB: {
		ChainID: 56, Name: "BNB Smart Chain", Symbol: "BNB", Decimals: 18,
		RPCURL:            "https://bsc-dataseed.binance.org",
		ExplorerURL:       "https://bscscan.com",
		ExplorerAPIURL:    "https://api.bscscan.com/api",
		CoinGeckoPlatform: "binance-smart-chain", CoinGeckoCoin: "binancecoin",
	},
	Classic: {
		ChainID: 61, Name: "Ethereum Classic", Symbol: "ETC", Decimals: 18,
		RPCURL:            "https://etc.rivet.link",
		ExplorerURL:       "https://blockscout.com/etc/mainnet",
		CoinGeckoPlatform: "ethereum-classic", CoinGeckoCoin: "ethereum-classic",
	},
	BNBTestnet: {
		ChainID: 97, Name: "BNB Smart Chain Testnet", Symbol: "tBNB", Decimals: 18,
		RPCURL:         "https://data-seed-prebsc-1-s1.binance.org:8545",
		ExplorerURL:    "https://testnet.bscscan.com",
		ExplorerAPIURL: "https://api-testnet.bscscan.com/api",
		IsTestnet:      true,
	},
	Gnosis: {
		ChainID: 100, Name: "Gnosis", Symbol: "xDAI", Decimals: 18,
		RPCURL:            "https://rpc.gnosischain.com",
		ExplorerURL:       "https://gnosisscan.io",
		ExplorerAPIURL:    "https://api.gnosisscan.io/api",
		CoinGeckoPlatform: "xdai", CoinGeckoCoin: "xdai",
	},
	Polygon: {
		ChainID: 137, Name: "Polygon", Symbol: "POL", Decimals: 18,
		RPCURL:            "https://polygon-rpc.com",
		ExplorerURL:       "https://polygonscan.com",
		ExplorerAPIURL:    "https://api.polygonscan.com/api",
		CoinGeckoPlatform: "polygon-pos", CoinGeckoCoin: "polygon-ecosystem-token",
	},
	Fantom: {
		ChainID: 250, Name: "Fantom Opera", Symbol: "FTM", Decimals: 18,
		RPCURL:            "https://rpc.ftm.tools",
		ExplorerURL:       "https://ftmscan.com",
		ExplorerAPIURL:    "https://api.ftmscan.com/api",
		CoinGeckoPlatform: "fantom", CoinGeckoCoin: "fantom",
	},
	IoTeX: {
		ChainID: 4689, Name: "IoTeX", Symbol: "IOTX", Decimals: 18,
		RPCURL:            "https://babel-api.mainnet.iotex.io",
		ExplorerURL:       "https://iotexscan.io",
		CoinGeckoPlatform: "iotex", CoinGeckoCoin: "iotex",
	},
	Klaytn: {
		ChainID: 8217, Name: "Klaytn", Symbol: "KLAY", Decimals: 18,
		RPCURL:            "https://public-en-cypress.klaytn.net",
		ExplorerURL:       "https://scope.klaytn.com",
		CoinGeckoPlatform: "klay-token", CoinGeckoCoin: "klay-token",
	},
	Base: {
		ChainID: 8453, Name: "Base", Symbol: "ETH", Decimals: 18,
		RPCURL:            "https://mainnet.base.org",
		ExplorerURL:       "https://basescan.org",
		ExplorerAPIURL:    "https://api.basescan.org/api",
		CoinGeckoPlatform: "base", CoinGeckoCoin: "ethereum",
	},
	Holesky: {
		ChainID: 17000, Name: "Holesky", Symbol: "ETH", Decimals: 18,
		RPCURL:      "https://ethereum-holesky-rpc.publicnode.com",
		ExplorerURL: "https://holesky.etherscan.io",
		IsTestnet:   true,
	},
	Arbitrum: {
		ChainID: 42161, Name: "Arbitrum One", Symbol: "ETH", Decimals: 18,
		RPCURL:            "https://arb1.arbitrum.io/rpc",
		ExplorerURL:       "https://arbiscan.io",
		ExplorerAPIURL:    "https://api.arbiscan.io/api",
		CoinGeckoPlatform: "arbitrum-one", CoinGeckoCoin: "ethereum",
	},
	Avalanche: {
		ChainID: 43114, Name: "Avalanche C-Chain", Symbol: "AVAX", Decimals: 18,
		RPCURL:            "https://api.avax.network/ext/bc/C/rpc",
		ExplorerURL:       "https://snowtrace.io",
		CoinGeckoPlatform: "avalanche", CoinGeckoCoin: "avalanche-2",
	},
	Sepolia: {
		ChainID: 11155111, Name: "Sepolia", Symbol: "ETH", Decimals: 18,
		RPCURL:         "https://rpc.sepolia.org",
		ExplorerURL:    "https://sepolia.etherscan.io",
		ExplorerAPIURL: "https://api-sepolia.etherscan.io/api",
		IsTestnet:      true,
	},
}

// DefaultEnabled is the set of chains enabled when none are configured.
var DefaultEnabled = []Server{Ethereum, Polygon, BNB, Arbitrum, Optimism, Base}

// IsBuiltin reports whether the server is part of the fixed catalog.
func IsBuiltin(s Server) bool {
	_, ok := builtin[s]
	return ok
}
