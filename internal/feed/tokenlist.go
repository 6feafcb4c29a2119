package feed

import (
	"fmt"
	"io"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/mtlprog/walletboard/internal/domain"
)

// TrackedToken is a token the feed looks up balances for.
type TrackedToken struct {
	Token       domain.Token
	CoinGeckoID string // optional; overrides the contract-based price lookup
}

type tokenListFile struct {
	Tokens []tokenEntry `yaml:"tokens"`
}

type tokenEntry struct {
	ChainID     uint64 `yaml:"chainId"`
	Contract    string `yaml:"contract"`
	Symbol      string `yaml:"symbol"`
	Name        string `yaml:"name"`
	Decimals    uint8  `yaml:"decimals"`
	Type        string `yaml:"type"`
	Group       string `yaml:"group"`
	CoinGeckoID string `yaml:"coingeckoId"`
}

// LoadTokenList reads a YAML token list from path.
func LoadTokenList(path string) ([]TrackedToken, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening token list: %w", err)
	}
	defer f.Close()
	return ParseTokenList(f)
}

// ParseTokenList decodes a token list:
//
//	tokens:
//	  - chainId: 1
//	    contract: "0x6B175474E89094C44Da98b954EedeAC495271d0F"
//	    symbol: DAI
//	    name: Dai Stablecoin
//	    decimals: 18
//	    type: erc20
//	    group: defi
func ParseTokenList(r io.Reader) ([]TrackedToken, error) {
	var file tokenListFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding token list: %w", err)
	}

	out := make([]TrackedToken, 0, len(file.Tokens))
	for i, e := range file.Tokens {
		t, err := e.toToken()
		if err != nil {
			return nil, fmt.Errorf("token list entry %d (%s): %w", i, e.Symbol, err)
		}
		out = append(out, TrackedToken{Token: t, CoinGeckoID: e.CoinGeckoID})
	}

	dupes := lo.FindDuplicatesBy(out, func(t TrackedToken) string { return t.Token.ID.Key() })
	if len(dupes) > 0 {
		return nil, fmt.Errorf("token list has duplicate entry %s", dupes[0].Token.ID.Key())
	}
	return out, nil
}

func (e tokenEntry) toToken() (domain.Token, error) {
	if e.ChainID == 0 {
		return domain.Token{}, fmt.Errorf("chainId is required")
	}
	if e.Symbol == "" {
		return domain.Token{}, fmt.Errorf("symbol is required")
	}
	id, err := domain.ParseTokenID(e.ChainID, e.Contract)
	if err != nil {
		return domain.Token{}, err
	}
	if id.IsNative() {
		return domain.Token{}, fmt.Errorf("native coins come from the chain catalog, not the token list")
	}

	typ := domain.TokenTypeERC20
	if e.Type != "" {
		if typ, err = domain.ParseTokenType(e.Type); err != nil {
			return domain.Token{}, err
		}
	}

	var group domain.TokenGroup
	switch g := domain.TokenGroup(e.Group); g {
	case "":
	case domain.TokenGroupAssets, domain.TokenGroupCollectibles, domain.TokenGroupDefi, domain.TokenGroupGovernance:
		group = g
	default:
		return domain.Token{}, fmt.Errorf("unknown group %q", e.Group)
	}

	name := e.Name
	if name == "" {
		name = e.Symbol
	}
	return domain.Token{
		ID:       id,
		Type:     typ,
		Decimals: e.Decimals,
		Symbol:   e.Symbol,
		Name:     name,
		Group:    group,
	}, nil
}
