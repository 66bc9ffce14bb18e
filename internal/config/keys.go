package config

const (
	KeyGitHubToken      = "github_token"
	KeyOpenAIAPIKey     = "openai_api_key"
	KeyOpenAIOrgID      = "openai_org_id"
	KeyGitHubRepository = "github_repository"
	KeyBaseRef          = "base_ref"
	KeyHeadRef          = "head_ref"
	KeyGenerationModel  = "generation_model"
	KeyMaxContextTokens = "max_context_tokens"
	KeyLogLevel         = "log_level"
	KeyBotName          = "auto_pr_writer_bot_name"
	KeyUserMessage      = "auto_pr_writer_user_message"
	KeySystemMessage    = "auto_pr_writer_system_message"
	KeyAttribution      = "auto_pr_writer_attribution_message"
	KeyGitHubOutput     = "github_output"
)
