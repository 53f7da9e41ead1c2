package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandRun はクライアントコアを起動することを示す。
	// セッション復元とストアの購読を開始し、シグナル受信まで稼働する。
	CommandRun Command = "run"
	// CommandHealthcheck はメトリクスエンドポイントの死活確認を行う。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandRunを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandRun
	}

	switch args[0] {
	case "run":
		return CommandRun
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandRun
	}
}
