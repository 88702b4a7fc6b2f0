package mcptools

// DailyRequestsInput is the input schema for the compute_daily_requests MCP tool.
type DailyRequestsInput struct {
	AccountID int64  `json:"account_id" jsonschema-description:"Account ID"`
	Date      string `json:"date,omitempty" jsonschema-description:"Target date YYYY-MM-DD; defaults to today"`
}

// DailyRequestsOutput is the output schema for the compute_daily_requests MCP tool.
type DailyRequestsOutput struct {
	AccountID   int64           `json:"account_id"`
	AccountName string          `json:"account_name"`
	TargetDate  string          `json:"target_date"`
	DaysPassed  int             `json:"days_passed"`
	Requests    []RequestResult `json:"requests"`
}

// RequestResult is one rendered request. LevelID is null for purchase events.
type RequestResult struct {
	RequestType     string `json:"request_type"`
	EventToken      string `json:"event_token"`
	LevelID         *int64 `json:"level_id"`
	PurchaseEventID int64  `json:"purchase_event_id,omitempty"`
	TimeSpent       int    `json:"time_spent"`
	Timestamp       string `json:"timestamp"`
	Content         string `json:"content"`
}

// ProgressInput is the input schema for the account_progress MCP tool.
type ProgressInput struct {
	AccountID int64  `json:"account_id" jsonschema-description:"Account ID"`
	Date      string `json:"date,omitempty" jsonschema-description:"Target date YYYY-MM-DD; defaults to today"`
}

// ProgressOutput is the output schema for the account_progress MCP tool.
type ProgressOutput struct {
	AccountName     string        `json:"account_name"`
	TargetDate      string        `json:"target_date"`
	DaysPassed      int           `json:"days_passed"`
	CurrentLevel    *LevelResult  `json:"current_level,omitempty"`
	NextLevel       *LevelResult  `json:"next_level,omitempty"`
	CompletedLevels []LevelResult `json:"completed_levels"`
	RemainingLevels int           `json:"remaining_levels"`
}

// LevelResult is the common output format for levels.
type LevelResult struct {
	ID         int64  `json:"id"`
	EventToken string `json:"event_token"`
	LevelName  string `json:"level_name"`
	DaysOffset int    `json:"days_offset"`
}

// ListAccountsInput is the input schema for the list_accounts MCP tool.
type ListAccountsInput struct {
	GameID int64 `json:"game_id,omitempty" jsonschema-description:"Restrict to one game; 0 lists every account"`
	Limit  int   `json:"limit,omitempty" jsonschema-description:"Maximum number of accounts to return"`
}

// ListAccountsOutput is the output schema for the list_accounts MCP tool.
type ListAccountsOutput struct {
	Accounts []AccountResult `json:"accounts"`
}

// AccountResult represents an account in list_accounts output.
type AccountResult struct {
	ID          int64  `json:"id"`
	GameID      int64  `json:"game_id"`
	Name        string `json:"name"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	HasTemplate bool   `json:"has_template"`
}

// CompleteLevelInput is the input schema for the complete_level MCP tool.
type CompleteLevelInput struct {
	AccountID int64 `json:"account_id" jsonschema-description:"Account ID"`
	LevelID   int64 `json:"level_id" jsonschema-description:"Level ID"`
	Undo      bool  `json:"undo,omitempty" jsonschema-description:"Mark the level not completed instead"`
}

// CompleteLevelOutput is the output schema for the complete_level MCP tool.
type CompleteLevelOutput struct {
	AccountID   int64  `json:"account_id"`
	LevelID     int64  `json:"level_id"`
	IsCompleted bool   `json:"is_completed"`
	CompletedAt string `json:"completed_at,omitempty"`
}
