package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/chainpilot/assistant-backend/internal/config"
)

// Contract ABIs for the deployed helper contracts. The token factory
// deploys standard ERC20s; the minter is a shared ERC721 collection.
const (
	tokenFactoryABI = `[
		{"type":"function","name":"createToken","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"totalSupply","type":"uint256"},{"name":"decimals","type":"uint8"}],"outputs":[{"name":"token","type":"address"}]},
		{"type":"event","name":"TokenCreated","inputs":[{"name":"token","type":"address","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"name","type":"string","indexed":false},{"name":"symbol","type":"string","indexed":false}]}
	]`
	nftMinterABI = `[
		{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"uri","type":"string"}],"outputs":[{"name":"tokenId","type":"uint256"}]},
		{"type":"event","name":"Minted","inputs":[{"name":"to","type":"address","indexed":true},{"name":"tokenId","type":"uint256","indexed":true},{"name":"uri","type":"string","indexed":false}]}
	]`
	erc20ABI = `[
		{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
	]`
)

const (
	receiptPollInterval = 2 * time.Second
	receiptWaitTimeout  = 90 * time.Second
)

// TxResult is the normalized outcome of a submission. Collaborator-level
// failures (revert, insufficient funds) are reported in-band via Success
// and Error rather than as Go errors.
type TxResult struct {
	Success         bool
	Hash            string
	ContractAddress string
	TokenID         string
	Error           string
}

// TokenParams describes an ERC20 deployment.
type TokenParams struct {
	Name        string
	Symbol      string
	TotalSupply *big.Int
	Decimals    uint8
}

// TransferParams describes a native or ERC20 transfer. An empty Token
// means the native asset.
type TransferParams struct {
	Recipient string
	Amount    *big.Int
	Token     string
}

// Client submits transactions to an EVM JSON-RPC provider.
type Client struct {
	eth          *ethclient.Client
	chainID      *big.Int
	nativeSymbol string
	explorerURL  string
	tokenFactory common.Address
	nftMinter    common.Address
	factoryABI   abi.ABI
	minterABI    abi.ABI
	erc20ABI     abi.ABI
	logger       *logrus.Logger

	gas gasCache
}

// NewClient dials the RPC provider and parses the helper contract ABIs.
func NewClient(ctx context.Context, cfg config.ChainConfig, logger *logrus.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	factory, err := abi.JSON(strings.NewReader(tokenFactoryABI))
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	minter, err := abi.JSON(strings.NewReader(nftMinterABI))
	if err != nil {
		return nil, fmt.Errorf("parse minter abi: %w", err)
	}
	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	if !common.IsHexAddress(cfg.TokenFactory) {
		return nil, fmt.Errorf("invalid token factory address %q", cfg.TokenFactory)
	}
	if !common.IsHexAddress(cfg.NFTMinter) {
		return nil, fmt.Errorf("invalid nft minter address %q", cfg.NFTMinter)
	}

	return &Client{
		eth:          eth,
		chainID:      big.NewInt(cfg.ChainID),
		nativeSymbol: cfg.NativeSymbol,
		explorerURL:  strings.TrimSuffix(cfg.ExplorerURL, "/"),
		tokenFactory: common.HexToAddress(cfg.TokenFactory),
		nftMinter:    common.HexToAddress(cfg.NFTMinter),
		factoryABI:   factory,
		minterABI:    minter,
		erc20ABI:     erc20,
		logger:       logger,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// NativeSymbol returns the chain's native asset symbol.
func (c *Client) NativeSymbol() string {
	return c.nativeSymbol
}

// ExplorerTxURL returns the block-explorer link for a transaction hash.
func (c *Client) ExplorerTxURL(hash string) string {
	return c.explorerURL + "/tx/" + hash
}

// ExplorerAddressURL returns the block-explorer link for an address.
func (c *Client) ExplorerAddressURL(addr string) string {
	return c.explorerURL + "/address/" + addr
}

// NativeBalance reads the native-asset balance of an address.
func (c *Client) NativeBalance(ctx context.Context, addr string) (*big.Int, error) {
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid address %q", addr)
	}
	return c.eth.BalanceAt(ctx, common.HexToAddress(addr), nil)
}

// CreateToken deploys an ERC20 through the token factory and returns the
// new contract address parsed from the TokenCreated event.
func (c *Client) CreateToken(ctx context.Context, p TokenParams, signingKey string) (*TxResult, error) {
	key, from, err := ParseSigningKey(signingKey)
	if err != nil {
		return nil, err
	}

	data, err := c.factoryABI.Pack("createToken", p.Name, p.Symbol, p.TotalSupply, p.Decimals)
	if err != nil {
		return nil, fmt.Errorf("pack createToken: %w", err)
	}

	receipt, res := c.submit(ctx, key, from, c.tokenFactory, big.NewInt(0), data)
	if !res.Success {
		return res, nil
	}

	createdTopic := c.factoryABI.Events["TokenCreated"].ID
	for _, lg := range receipt.Logs {
		if len(lg.Topics) >= 2 && lg.Topics[0] == createdTopic {
			res.ContractAddress = common.BytesToAddress(lg.Topics[1].Bytes()).Hex()
			break
		}
	}
	return res, nil
}

// MintNFT mints a token in the shared collection to the recipient with
// the given token URI.
func (c *Client) MintNFT(ctx context.Context, tokenURI string, recipient string, signingKey string) (*TxResult, error) {
	key, from, err := ParseSigningKey(signingKey)
	if err != nil {
		return nil, err
	}

	to := from
	if recipient != "" {
		if !common.IsHexAddress(recipient) {
			return &TxResult{Success: false, Error: fmt.Sprintf("invalid recipient address %q", recipient)}, nil
		}
		to = common.HexToAddress(recipient)
	}

	data, err := c.minterABI.Pack("mint", to, tokenURI)
	if err != nil {
		return nil, fmt.Errorf("pack mint: %w", err)
	}

	receipt, res := c.submit(ctx, key, from, c.nftMinter, big.NewInt(0), data)
	if !res.Success {
		return res, nil
	}

	mintedTopic := c.minterABI.Events["Minted"].ID
	for _, lg := range receipt.Logs {
		if len(lg.Topics) >= 3 && lg.Topics[0] == mintedTopic {
			res.TokenID = new(big.Int).SetBytes(lg.Topics[2].Bytes()).String()
			break
		}
	}
	return res, nil
}

// SendTransaction transfers the native asset or an ERC20 token.
func (c *Client) SendTransaction(ctx context.Context, p TransferParams, signingKey string) (*TxResult, error) {
	key, from, err := ParseSigningKey(signingKey)
	if err != nil {
		return nil, err
	}

	if !common.IsHexAddress(p.Recipient) {
		return &TxResult{Success: false, Error: fmt.Sprintf("invalid recipient address %q", p.Recipient)}, nil
	}
	recipient := common.HexToAddress(p.Recipient)

	// Empty token field means the native asset.
	if p.Token == "" {
		_, res := c.submit(ctx, key, from, recipient, p.Amount, nil)
		return res, nil
	}

	if !common.IsHexAddress(p.Token) {
		return &TxResult{Success: false, Error: fmt.Sprintf("invalid token address %q", p.Token)}, nil
	}
	data, err := c.erc20ABI.Pack("transfer", recipient, p.Amount)
	if err != nil {
		return nil, fmt.Errorf("pack transfer: %w", err)
	}
	_, res := c.submit(ctx, key, from, common.HexToAddress(p.Token), big.NewInt(0), data)
	return res, nil
}

// submit signs, broadcasts, and waits for a transaction receipt. Node
// rejections and reverts come back in-band on TxResult.
func (c *Client) submit(ctx context.Context, key *ecdsa.PrivateKey, from common.Address, to common.Address, value *big.Int, data []byte) (*ethtypes.Receipt, *TxResult) {
	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, &TxResult{Success: false, Error: fmt.Sprintf("fetch nonce: %v", err)}
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, &TxResult{Success: false, Error: fmt.Sprintf("suggest gas price: %v", err)}
	}

	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		// Estimation executes the call, so reverts surface here with the
		// node's reason string.
		return nil, &TxResult{Success: false, Error: err.Error()}
	}

	cost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	cost.Add(cost, value)
	balance, err := c.eth.BalanceAt(ctx, from, nil)
	if err == nil && balance.Cmp(cost) < 0 {
		return nil, &TxResult{Success: false, Error: "Insufficient balance"}
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(c.chainID), key)
	if err != nil {
		return nil, &TxResult{Success: false, Error: fmt.Sprintf("sign transaction: %v", err)}
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, &TxResult{Success: false, Error: err.Error()}
	}

	hash := signed.Hash()
	c.logger.WithFields(logrus.Fields{
		"hash": hash.Hex(),
		"from": from.Hex(),
		"to":   to.Hex(),
	}).Info("transaction broadcast")

	receipt, err := c.waitMined(ctx, hash)
	if err != nil {
		return nil, &TxResult{Success: false, Hash: hash.Hex(), Error: fmt.Sprintf("wait for receipt: %v", err)}
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return receipt, &TxResult{Success: false, Hash: hash.Hex(), Error: "transaction reverted"}
	}

	return receipt, &TxResult{Success: true, Hash: hash.Hex()}
}

// waitMined polls for the transaction receipt until it lands or the wait
// window expires.
func (c *Client) waitMined(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, receiptWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			c.logger.WithError(err).Debug("receipt lookup failed, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ToWei converts a human-readable amount into base units for the given
// decimal precision.
func ToWei(amount float64, decimals int) *big.Int {
	f := new(big.Float).SetFloat64(amount)
	exp := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f.Mul(f, exp)
	wei, _ := f.Int(nil)
	return wei
}

// FromWei converts base units into a human-readable amount.
func FromWei(wei *big.Int, decimals int) float64 {
	if wei == nil {
		return 0
	}
	f := new(big.Float).SetInt(wei)
	exp := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f.Quo(f, exp)
	out, _ := f.Float64()
	return out
}

