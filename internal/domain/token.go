package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TokenType represents the on-chain token standard.
type TokenType string

const (
	TokenTypeNative  TokenType = "native"
	TokenTypeERC20   TokenType = "erc20"
	TokenTypeERC721  TokenType = "erc721"
	TokenTypeERC875  TokenType = "erc875"
	TokenTypeERC1155 TokenType = "erc1155"
)

// IsFungible returns true for native coins and ERC20 tokens.
func (t TokenType) IsFungible() bool {
	return t == TokenTypeNative || t == TokenTypeERC20
}

// ParseTokenType parses a token type name, case-insensitively.
func ParseTokenType(s string) (TokenType, error) {
	switch t := TokenType(strings.ToLower(strings.TrimSpace(s))); t {
	case TokenTypeNative, TokenTypeERC20, TokenTypeERC721, TokenTypeERC875, TokenTypeERC1155:
		return t, nil
	default:
		return "", fmt.Errorf("unknown token type %q", s)
	}
}

// TokenGroup is the display category a token belongs to.
type TokenGroup string

const (
	TokenGroupAssets       TokenGroup = "assets"
	TokenGroupCollectibles TokenGroup = "collectibles"
	TokenGroupDefi         TokenGroup = "defi"
	TokenGroupGovernance   TokenGroup = "governance"
)

// TokenID identifies a token by contract address and chain.
// Native coins use the zero address.
type TokenID struct {
	Contract common.Address `json:"contract"`
	ChainID  uint64         `json:"chainId"`
}

// ParseTokenID validates a hex contract address and builds a TokenID.
func ParseTokenID(chainID uint64, contract string) (TokenID, error) {
	if !common.IsHexAddress(contract) {
		return TokenID{}, fmt.Errorf("invalid contract address %q", contract)
	}
	return TokenID{Contract: common.HexToAddress(contract), ChainID: chainID}, nil
}

// NativeTokenID returns the identity of the native coin on the given chain.
func NativeTokenID(chainID uint64) TokenID {
	return TokenID{ChainID: chainID}
}

// IsNative returns true if the contract is the zero address.
func (id TokenID) IsNative() bool {
	return id.Contract == (common.Address{})
}

// Key returns a stable string form, "<chainID>:<lowercase contract>".
func (id TokenID) Key() string {
	return fmt.Sprintf("%d:%s", id.ChainID, strings.ToLower(id.Contract.Hex()))
}

// Token is the immutable identity and metadata of a token. Balances and
// tickers are refreshed independently and live in TokenViewModel.
type Token struct {
	ID       TokenID    `json:"id"`
	Type     TokenType  `json:"type"`
	Decimals uint8      `json:"decimals"`
	Symbol   string     `json:"symbol"`
	Name     string     `json:"name"`
	Group    TokenGroup `json:"group"`
}

// EffectiveGroup returns the token group, defaulting to assets for fungible
// tokens and collectibles otherwise.
func (t Token) EffectiveGroup() TokenGroup {
	if t.Group != "" {
		return t.Group
	}
	if t.Type.IsFungible() {
		return TokenGroupAssets
	}
	return TokenGroupCollectibles
}
