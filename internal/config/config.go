package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Init(root *cobra.Command) {
	viper.AutomaticEnv()
	_ = godotenv.Load(".env")
	if root != nil {
		_ = viper.BindPFlags(root.PersistentFlags())
	}
	setDefaults()
}

func setDefaults() {
	viper.SetDefault(KeyLogLevel, "info")
	// long-context model, change with caution
	viper.SetDefault(KeyGenerationModel, "gpt-4-1106-preview")
	viper.SetDefault(KeyMaxContextTokens, 128000)
	viper.SetDefault(KeyBotName, "auto-pr-writer-bot")
}

func GitHubToken() string      { return viper.GetString(KeyGitHubToken) }
func OpenAIAPIKey() string     { return viper.GetString(KeyOpenAIAPIKey) }
func OpenAIOrgID() string      { return viper.GetString(KeyOpenAIOrgID) }
func GitHubRepository() string { return viper.GetString(KeyGitHubRepository) }
func BaseRef() string          { return viper.GetString(KeyBaseRef) }
func HeadRef() string          { return viper.GetString(KeyHeadRef) }
func GenerationModel() string  { return viper.GetString(KeyGenerationModel) }
func MaxContextTokens() int    { return viper.GetInt(KeyMaxContextTokens) }
func LogLevel() string         { return viper.GetString(KeyLogLevel) }
func BotName() string          { return viper.GetString(KeyBotName) }
func UserMessage() string      { return viper.GetString(KeyUserMessage) }
func SystemMessage() string    { return viper.GetString(KeySystemMessage) }
func Attribution() string      { return viper.GetString(KeyAttribution) }
func GitHubOutput() string     { return viper.GetString(KeyGitHubOutput) }
