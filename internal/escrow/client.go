package escrow

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/boundless/grants-service/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// 托管合约ABI定义（简化版）
const contractABI = `[
	{
		"inputs": [
			{"name": "projectId", "type": "uint256"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "lockFunds",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "projectId", "type": "uint256"},
			{"name": "milestoneId", "type": "uint256"}
		],
		"name": "releaseMilestone",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "projectId", "type": "uint256"}
		],
		"name": "refundAll",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// Client 基于以太坊客户端的托管合约实现
type Client struct {
	client        *ethclient.Client
	privateKey    *ecdsa.PrivateKey
	contractAddr  common.Address
	contractABI   abi.ABI
	chainId       *big.Int
	gasLimit      uint64
	confirmations int
}

func Init(cfg config.EscrowConfig) (*Client, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 解析私钥
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	// 解析ABI
	parsedABI, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	return &Client{
		client:        client,
		privateKey:    privateKey,
		contractAddr:  common.HexToAddress(cfg.ContractAddr),
		contractABI:   parsedABI,
		chainId:       big.NewInt(cfg.ChainId),
		gasLimit:      cfg.GasLimit,
		confirmations: cfg.Confirmations,
	}, nil
}

// LockFunds 锁定活动资金
func (c *Client) LockFunds(ctx context.Context, projectId int64, amount int64) (string, error) {
	return c.call(ctx, "lockFunds", big.NewInt(projectId), big.NewInt(amount))
}

// ReleaseMilestone 释放里程碑份额
func (c *Client) ReleaseMilestone(ctx context.Context, projectId, milestoneId int64) (string, error) {
	return c.call(ctx, "releaseMilestone", big.NewInt(projectId), big.NewInt(milestoneId))
}

// RefundAll 全额退款
func (c *Client) RefundAll(ctx context.Context, projectId int64) (string, error) {
	return c.call(ctx, "refundAll", big.NewInt(projectId))
}

// call 打包并发送合约调用交易
func (c *Client) call(ctx context.Context, method string, args ...interface{}) (string, error) {
	data, err := c.contractABI.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	from := crypto.PubkeyToAddress(c.privateKey.PublicKey)

	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, c.contractAddr, big.NewInt(0), c.gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainId), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send %s transaction: %w", method, err)
	}

	return signedTx.Hash().Hex(), nil
}

// IsConfirmed 检查交易是否已确认
func (c *Client) IsConfirmed(ctx context.Context, txHash string) (bool, error) {
	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return false, err
	}
	if receipt == nil {
		return false, nil
	}

	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return false, err
	}

	return header.Number.Uint64() >= receipt.BlockNumber.Uint64()+uint64(c.confirmations), nil
}

// GetAccountAddress 获取平台账户地址
func (c *Client) GetAccountAddress() common.Address {
	return crypto.PubkeyToAddress(c.privateKey.PublicKey)
}
