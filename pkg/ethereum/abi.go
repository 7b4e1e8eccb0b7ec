package ethereum

// PipelineContractABI is the minimal ABI surface the publisher exercises,
// per spec.md section 4.3: mint-or-record for credits, payments, and
// routes, each idempotent on its own ID argument, plus the read-only
// balance check the recoverable-overflow retry re-reads.
const PipelineContractABI = `[
	{
		"type": "function",
		"name": "issueCredit",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "creditId", "type": "uint256"},
			{"name": "principal", "type": "uint256"},
			{"name": "totalRepayment", "type": "uint256"},
			{"name": "issuanceDate", "type": "uint256"},
			{"name": "creditTerm", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "recordPayment",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "creditId", "type": "uint256"},
			{"name": "paymentId", "type": "uint256"},
			{"name": "paymentAmount", "type": "uint256"},
			{"name": "paymentDate", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "recordRoute",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "routeId", "type": "uint256"},
			{"name": "timestampStart", "type": "uint256"},
			{"name": "timestampEnd", "type": "uint256"},
			{"name": "distance", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "outstandingBalance",
		"stateMutability": "view",
		"inputs": [
			{"name": "creditId", "type": "uint256"}
		],
		"outputs": [
			{"name": "", "type": "uint256"}
		]
	}
]`
