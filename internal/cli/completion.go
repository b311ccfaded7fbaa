package cli

import (
	"fmt"
	"strings"

	goflags "github.com/jessevdk/go-flags"
)

// bashCompletion defers to go-flags' built-in completion, which the
// binary answers when GO_FLAGS_COMPLETION is set.
const bashCompletion = `# chronicle-mcp bash completion
_chronicle_mcp() {
    local args=("${COMP_WORDS[@]:1:$COMP_CWORD}")
    local IFS=$'\n'
    COMPREPLY=($(GO_FLAGS_COMPLETION=1 ${COMP_WORDS[0]} "${args[@]}"))
    return 0
}
complete -F _chronicle_mcp chronicle-mcp
`

const zshCompletion = `#compdef chronicle-mcp
# chronicle-mcp zsh completion
autoload -U +X bashcompinit && bashcompinit
` + bashCompletion

// Execute implements the go-flags Commander interface for CompletionCommand.
func (c *CompletionCommand) Execute(args []string) error {
	switch c.Args.Shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion(c.parser))
	default:
		return fmt.Errorf("unsupported shell %q (use bash, zsh or fish)", c.Args.Shell)
	}
	return nil
}

// fishCompletion lists the parser's commands and their long options.
func fishCompletion(p *goflags.Parser) string {
	var b strings.Builder
	b.WriteString("# chronicle-mcp fish completion\n")
	b.WriteString("complete -c chronicle-mcp -f\n")
	if p == nil {
		return b.String()
	}
	for _, opt := range p.Command.Options() {
		writeFishOption(&b, "", opt)
	}
	for _, cmd := range p.Commands() {
		fmt.Fprintf(&b, "complete -c chronicle-mcp -n __fish_use_subcommand -a %s -d %q\n", cmd.Name, cmd.ShortDescription)
		for _, opt := range cmd.Options() {
			writeFishOption(&b, cmd.Name, opt)
		}
	}
	return b.String()
}

func writeFishOption(b *strings.Builder, command string, opt *goflags.Option) {
	if opt.LongName == "" {
		return
	}
	cond := ""
	if command != "" {
		cond = fmt.Sprintf(" -n '__fish_seen_subcommand_from %s'", command)
	}
	fmt.Fprintf(b, "complete -c chronicle-mcp%s -l %s -d %q\n", cond, opt.LongName, opt.Description)
}
