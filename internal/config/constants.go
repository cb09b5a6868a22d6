package config

// Base application details
const AppName = "blockpatch"
const DefaultConfigFileName = "config.toml" // Main config file
const DefaultEnvFileName = ".env"
const EnvPrefix = "BLOCKPATCH_"

// Patch defaults
const DefaultEncoding = "utf-8"
const DefaultOccurrence = "strict"
const DefaultSyntaxCheck = true
const DefaultBackup = false
const DefaultBackupSuffix = ".bak"
