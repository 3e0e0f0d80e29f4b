package assets

import "embed"

// Migrations はドライバごとのマイグレーションファイルです。
//
//go:embed migrations
var Migrations embed.FS
