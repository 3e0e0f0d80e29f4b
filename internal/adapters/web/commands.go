package web

// コマンド種別です。クライアントはリストの順に適用します。
const (
	CommandReplace = "replace"
	CommandAppend  = "append"
	CommandInvoke  = "invoke"
)

// Command は画面の一部を書き換える指示です。
type Command struct {
	Command  string `json:"command"`
	Selector string `json:"selector"`
	HTML     string `json:"html,omitempty"`
	Method   string `json:"method,omitempty"`
}

// CommandList はアクションの応答です。
type CommandList struct {
	Commands []Command `json:"commands"`
}

func (l *CommandList) Replace(selector, html string) *CommandList {
	l.Commands = append(l.Commands, Command{Command: CommandReplace, Selector: selector, HTML: html})
	return l
}

func (l *CommandList) Append(selector, html string) *CommandList {
	l.Commands = append(l.Commands, Command{Command: CommandAppend, Selector: selector, HTML: html})
	return l
}

func (l *CommandList) Invoke(selector, method string) *CommandList {
	l.Commands = append(l.Commands, Command{Command: CommandInvoke, Selector: selector, Method: method})
	return l
}
