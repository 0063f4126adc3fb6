package application

// Metered operations and their credit costs. Every operation that reaches
// the downstream bank runs against a live session.
var (
	OpFetchAccounts     = Operation{Name: "accounts.list", Cost: 1, AccountScoped: true}
	OpFetchTransactions = Operation{Name: "accounts.transactions", Cost: 1, AccountScoped: true}
	OpInitiateTransfer  = Operation{Name: "accounts.initiate_transfer", Cost: 2, AccountScoped: true}
	OpProcessTransfer   = Operation{Name: "accounts.process_transfer", Cost: 7, AccountScoped: true}

	OpFetchCoupons   = Operation{Name: "basic.coupons", Cost: 1, AccountScoped: true}
	OpFetchProfile   = Operation{Name: "basic.profile", Cost: 3, AccountScoped: true}
	OpAuthenticateQR = Operation{Name: "basic.authenticate_qr", Cost: 3, AccountScoped: true}

	OpLookupGroups       = Operation{Name: "groups.list", Cost: 1, AccountScoped: true}
	OpCreateGroup        = Operation{Name: "groups.create", Cost: 30, AccountScoped: true}
	OpCreateInvitation   = Operation{Name: "groups.create_invitation", Cost: 1, AccountScoped: true}
	OpFetchInvitation    = Operation{Name: "groups.fetch_invitation", Cost: 1, AccountScoped: true}
	OpAcceptInvitation   = Operation{Name: "groups.accept_invitation", Cost: 1, AccountScoped: true}
	OpApproveJoinRequest = Operation{Name: "groups.approve_join_request", Cost: 1, AccountScoped: true}

	OpOpenBankingInfo         = Operation{Name: "open_banking.info", Cost: 1, AccountScoped: true}
	OpOpenBankingCap          = Operation{Name: "open_banking.cap", Cost: 1, AccountScoped: true}
	OpOpenBankingTransfer     = Operation{Name: "open_banking.initiate_transfer", Cost: 2, AccountScoped: true}
	OpOpenBankingFinalize     = Operation{Name: "open_banking.finalize_transfer", Cost: 5, AccountScoped: true}
	OpOpenBankingDelete       = Operation{Name: "open_banking.delete_account", Cost: 1, AccountScoped: true}
	OpOpenBankingAccount      = Operation{Name: "open_banking.account_info", Cost: 1, AccountScoped: true}
	OpOpenBankingTransactions = Operation{Name: "open_banking.transactions", Cost: 1, AccountScoped: true}

	OpSearchEmployees = Operation{Name: "query.employees", Cost: 1, AccountScoped: true}
	OpSearchBranches  = Operation{Name: "query.branches", Cost: 1, AccountScoped: true}
	OpCheckAccount    = Operation{Name: "query.account", Cost: 1, AccountScoped: true}
)
