package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"quiz_console/internal/config"
	"quiz_console/internal/model"
	"quiz_console/internal/repository"
	"quiz_console/internal/service"
)

const logoutPrompt = "Bạn có chắc chắn muốn đăng xuất?"

var errUsage = errors.New("usage")

type cli struct {
	cfg     *config.Config
	store   repository.SessionStore
	in      *bufio.Reader
	out     io.Writer
	errOut  io.Writer
	yes     bool
	gate    *service.SessionGate
	console *service.Console
}

func newCLI(cfg *config.Config, store repository.SessionStore, in io.Reader, out, errOut io.Writer) *cli {
	c := &cli{
		cfg:    cfg,
		store:  store,
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}
	c.gate = service.NewSessionGate(store, cfg.Auth, service.WithNavigator(service.NavigatorFunc(func() {
		fmt.Fprintln(c.out, "Logged out. Run `quizctl login` to start a new session.")
	})))
	client := service.NewBackendClient(cfg.Backend, nil)
	c.console = service.NewConsole(cfg.Backend, c.gate, client,
		service.AlertFunc(c.alert), service.ConfirmFunc(c.confirm))
	return c
}

func (c *cli) alert(_ context.Context, message string) {
	fmt.Fprintln(c.errOut, "!", message)
}

func (c *cli) confirm(_ context.Context, prompt string) bool {
	if c.yes {
		return true
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, _ := c.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "có", "co":
		return true
	}
	return false
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "logout":
		return c.logout(ctx, rest)
	case "status":
		return c.status(ctx)
	case "watch":
		return c.watch(ctx)
	case "categories":
		return runResource(ctx, c, c.console.Categories, resourceForm[model.Category, model.CategoryPayload]{fromEntity: model.Category.Payload}, "", rest, c.printCategories)
	case "question-sets":
		if len(rest) > 0 && rest[0] == "options" {
			return c.options(ctx)
		}
		return runResource(ctx, c, c.console.QuestionSets, resourceForm[model.QuestionSet, model.QuestionSetPayload]{fromEntity: model.QuestionSet.Payload}, "", rest, c.printQuestionSets)
	case "questions":
		return runResource(ctx, c, c.console.Questions, resourceForm[model.Question, model.QuestionPayload]{initial: model.NewQuestionPayload, fromEntity: model.Question.Payload}, "set", rest, c.printQuestions)
	default:
		return errUsage
	}
}

func (c *cli) login(ctx context.Context, args []string) error {
	code := ""
	if len(args) > 0 {
		code = args[0]
	} else {
		fmt.Fprint(c.out, "Access code: ")
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		code = strings.TrimSpace(line)
	}

	res, err := c.gate.Login(ctx, code)
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if res == service.LoginRejected {
		return errors.New("invalid access code")
	}
	fmt.Fprintf(c.out, "Logged in. Session expires in %s.\n", service.FormatRemainingTime(c.gate.RemainingTime(ctx)))
	return nil
}

func (c *cli) logout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	fs.BoolVar(&c.yes, "yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if !c.confirm(ctx, logoutPrompt) {
		return service.ErrNotConfirmed
	}
	c.gate.Logout(ctx)
	return nil
}

func (c *cli) status(ctx context.Context) error {
	snap := c.snapshot(ctx)
	fmt.Fprintf(c.out, "state: %s\n", snap.State)
	if snap.State == service.StateAuthenticated.String() {
		fmt.Fprintf(c.out, "remaining: %s\n", snap.Remaining)
	}
	return nil
}

func (c *cli) snapshot(ctx context.Context) service.SessionSnapshot {
	c.gate.Refresh(ctx)
	return service.Snapshot(ctx, c.gate)
}

// watch 跟随会话变化，每分钟刷新剩余时间，直到中断
func (c *cli) watch(ctx context.Context) error {
	unsubscribe := c.gate.Subscribe(func(prev, next service.GateState) {
		fmt.Fprintf(c.out, "%s  %s -> %s\n", time.Now().Format("15:04:05"), prev, next)
	})
	defer unsubscribe()

	if err := c.gate.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		if c.gate.State() == service.StateAuthenticated {
			fmt.Fprintf(c.out, "%s  remaining %s\n", time.Now().Format("15:04:05"),
				service.FormatRemainingTime(c.gate.RemainingTime(ctx)))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.gate.Refresh(ctx)
		}
	}
}

func (c *cli) requireSession(ctx context.Context) error {
	if c.gate.Refresh(ctx) != service.StateAuthenticated {
		return fmt.Errorf("%w: run `quizctl login` first", service.ErrAuthInvalid)
	}
	return nil
}

func (c *cli) options(ctx context.Context) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	if _, err := c.console.QuestionSets.List(ctx, ""); err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tLABEL")
	for _, o := range c.console.QuestionSetOptions() {
		fmt.Fprintf(w, "%s\t%s\n", o.Value, o.Label)
	}
	return w.Flush()
}

// resourceForm 新建表单的默认值，以及把已有实体转换为编辑表单的值
type resourceForm[K model.Entity, P any] struct {
	initial    func() P
	fromEntity func(K) P
}

// mergePayload 将 JSON 文件中出现的字段覆盖到 base 上，"-" 表示从标准输入读取
func mergePayload[P any](base P, path string, stdin io.Reader) (P, error) {
	if path == "" {
		return base, errors.New("-file is required")
	}
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return base, err
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return base, fmt.Errorf("decode %s: %w", path, err)
	}
	return base, nil
}

func draftPath(source string) string {
	if strings.HasSuffix(source, ".draft.json") {
		return source
	}
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".draft.json"
}

// submitForm 提交表单；失败时表单保持打开，把已填写的值写入草稿文件供修改后重试
func submitForm[P any](ctx context.Context, c *cli, form *service.Form[P], source string, submit func(context.Context, P) error) error {
	err := form.Submit(ctx, submit)
	if err == nil {
		return nil
	}
	if form.IsOpen() && source != "" && source != "-" {
		draft := draftPath(source)
		if werr := writeJSONFile(draft, form.Values()); werr != nil {
			fmt.Fprintln(c.errOut, "! failed to keep input:", werr)
		} else {
			fmt.Fprintf(c.errOut, "Input kept in %s\n", draft)
		}
	}
	if fields := form.Errors(); len(fields) > 0 {
		return describeFields(fields)
	}
	return err
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// runResource 资源子命令：list/get/create/update/delete
func runResource[K model.Entity, P any](ctx context.Context, c *cli, rc *service.ResourceController[K, P], rf resourceForm[K, P], filterFlag string, args []string, print func([]K) error) error {
	if len(args) == 0 {
		return errUsage
	}
	op, rest := args[0], args[1:]

	fs := flag.NewFlagSet(op, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	file := fs.String("file", "", "JSON payload file, - for stdin")
	fs.BoolVar(&c.yes, "yes", false, "skip confirmation")
	var filter *string
	if filterFlag != "" {
		filter = fs.String(filterFlag, "", "filter key")
	}

	// 位置参数在 flag 之前，如 update 42 -file x.json
	var id string
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		id, rest = rest[0], rest[1:]
	}
	if err := fs.Parse(rest); err != nil {
		return errUsage
	}

	if err := c.requireSession(ctx); err != nil {
		return err
	}

	switch op {
	case "list":
		key := ""
		if filter != nil {
			key = *filter
		}
		items, err := rc.SetFilter(ctx, key)
		if err != nil {
			return err
		}
		return print(items)
	case "get":
		if id == "" {
			return errUsage
		}
		item, err := rc.GetOne(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(c.out, item)
	case "create":
		form := service.NewForm(rf.initial)
		form.Open(nil)
		values, err := mergePayload(form.Values(), *file, c.in)
		if err != nil {
			return err
		}
		form.SetValues(values)
		if err := submitForm(ctx, c, form, *file, rc.Create); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Created %s.\n", rc.Noun())
		return nil
	case "update":
		if id == "" {
			return errUsage
		}
		// 编辑表单以后端当前值为底，文件只需包含要修改的字段
		item, err := rc.GetOne(ctx, id)
		if err != nil {
			return err
		}
		existing := rf.fromEntity(item)
		form := service.NewForm(rf.initial)
		form.Open(&existing)
		values, err := mergePayload(form.Values(), *file, c.in)
		if err != nil {
			return err
		}
		form.SetValues(values)
		err = submitForm(ctx, c, form, *file, func(ctx context.Context, p P) error {
			return rc.Update(ctx, id, p)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Updated %s %s.\n", rc.Noun(), id)
		return nil
	case "delete":
		if id == "" {
			return errUsage
		}
		if err := rc.Remove(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted %s %s.\n", rc.Noun(), id)
		return nil
	default:
		return errUsage
	}
}

// describeFields 校验失败时按字段名列出
func describeFields(fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("validation failed:")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, fields[k])
	}
	return errors.New(b.String())
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) printCategories(items []model.Category) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME_EN\tNAME_VI")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", it.ID, it.NameEN, it.NameVI)
	}
	return w.Flush()
}

func (c *cli) printQuestionSets(items []model.QuestionSet) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME_EN\tNAME_VI")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", it.ID, it.NameEN, it.NameVI)
	}
	return w.Flush()
}

func (c *cli) printQuestions(items []model.Question) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVARIANT\tOPTIONS\tQUESTION_EN\tQUESTION_VI")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", it.ID, it.VariantName(), len(it.Options()), it.QuestionEN, it.QuestionVI)
	}
	return w.Flush()
}
