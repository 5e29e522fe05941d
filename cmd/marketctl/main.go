// marketctl is an admin client for the marketplace authorization server.
//
//	marketctl [-addr host:port] [-token JWT | -key private.pem -as USER_ID] <command> [flags]
//
// Commands: roles, check, assign-role, revoke-role, assign-agent, deactivate-agent,
// current-agent, onboarding, verify, token.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"handicraft-marketplace/backend/internal/config"
	"handicraft-marketplace/backend/internal/security"
	"handicraft-marketplace/backend/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "marketctl:", err)
		os.Exit(1)
	}
}

type globals struct {
	addr    string
	token   string
	key     string
	as      string
	timeout time.Duration
}

func run(args []string) error {
	var g globals
	fs := flag.NewFlagSet("marketctl", flag.ContinueOnError)
	fs.StringVar(&g.addr, "addr", "localhost:8080", "server address")
	fs.StringVar(&g.token, "token", os.Getenv("MARKETCTL_TOKEN"), "bearer access token")
	fs.StringVar(&g.key, "key", "", "private key (PEM or path) used to sign a dev token for -as")
	fs.StringVar(&g.as, "as", "", "user id to act as when signing with -key")
	fs.DurationVar(&g.timeout, "timeout", 10*time.Second, "request timeout")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage(fs)
		return fmt.Errorf("missing command")
	}
	name, rest := fs.Arg(0), fs.Args()[1:]

	if name == "token" {
		return printToken(rest)
	}

	method, fields, err := buildRequest(name, rest)
	if err != nil {
		return err
	}
	token := g.token
	if token == "" && g.key != "" {
		if token, err = signToken(g.key, g.as, time.Hour); err != nil {
			return err
		}
	}
	out, err := invoke(g, token, method, fields)
	if err != nil {
		return err
	}
	fmt.Println(protojson.MarshalOptions{Multiline: true, Indent: "  "}.Format(out))
	return nil
}

// command describes one RPC-backed subcommand: its method and how its flags map onto request fields.
type command struct {
	method  string
	summary string
	flags   func(fs *flag.FlagSet) func() map[string]interface{}
}

var commands = map[string]command{
	"roles":            {"ListRoles", "list roles of -user (default: caller)", rolesFlags},
	"check":            {"ResolvePermissions", "resolve view/edit/delete on -kind -id", checkFlags},
	"assign-role":      {"AssignRole", "grant -role to -user", userRoleFlags},
	"revoke-role":      {"RevokeRole", "revoke -role from -user", userRoleFlags},
	"assign-agent":     {"AssignAgent", "link agent profile -agent to artist profile -artist", relationFlags},
	"deactivate-agent": {"DeactivateAgent", "end the active -agent/-artist relation", relationFlags},
	"current-agent":    {"CurrentAgent", "show the active agent of artist profile -artist", currentAgentFlags},
	"request-agent":    {"RequestAgent", "ask for an agent for artist profile -artist in -location", requestAgentFlags},
	"requests":         {"ListAgentRequests", "list requests of -artist, or pending requests when omitted", currentAgentFlags},
	"accept-request":   {"AcceptAgentRequest", "accept request -id, as -agent when holding agent:assign", acceptFlags},
	"reject-request":   {"RejectAgentRequest", "reject pending request -id", requestIDFlags},
	"complete-request": {"CompleteAgentRequest", "mark accepted request -id completed", requestIDFlags},
	"onboarding":       {"OnboardingStatus", "show which role profiles of the caller need onboarding", noFlags},
	"verify":           {"VerifyProfile", "set the verified badge on -kind -id", verifyFlags},
}

func rolesFlags(fs *flag.FlagSet) func() map[string]interface{} {
	user := fs.String("user", "", "user id")
	return func() map[string]interface{} { return map[string]interface{}{"user_id": *user} }
}

func checkFlags(fs *flag.FlagSet) func() map[string]interface{} {
	kind := fs.String("kind", "product", "product, artist_profile or support_transaction")
	id := fs.String("id", "", "resource id")
	return func() map[string]interface{} { return map[string]interface{}{"kind": *kind, "id": *id} }
}

func currentAgentFlags(fs *flag.FlagSet) func() map[string]interface{} {
	artist := fs.String("artist", "", "artist profile id")
	return func() map[string]interface{} { return map[string]interface{}{"artist_id": *artist} }
}

func noFlags(*flag.FlagSet) func() map[string]interface{} {
	return func() map[string]interface{} { return nil }
}

func verifyFlags(fs *flag.FlagSet) func() map[string]interface{} {
	kind := fs.String("kind", "artist", "artist or agent")
	id := fs.String("id", "", "profile id")
	verified := fs.Bool("verified", true, "badge value")
	return func() map[string]interface{} {
		return map[string]interface{}{"kind": *kind, "profile_id": *id, "verified": *verified}
	}
}

func userRoleFlags(fs *flag.FlagSet) func() map[string]interface{} {
	user := fs.String("user", "", "user id")
	role := fs.String("role", "", "admin, artist, agent or buyer")
	return func() map[string]interface{} { return map[string]interface{}{"user_id": *user, "role": *role} }
}

func relationFlags(fs *flag.FlagSet) func() map[string]interface{} {
	agent := fs.String("agent", "", "agent profile id")
	artist := fs.String("artist", "", "artist profile id")
	return func() map[string]interface{} { return map[string]interface{}{"agent_id": *agent, "artist_id": *artist} }
}

func requestAgentFlags(fs *flag.FlagSet) func() map[string]interface{} {
	artist := fs.String("artist", "", "artist profile id")
	location := fs.String("location", "", "where the artist needs representation")
	return func() map[string]interface{} { return map[string]interface{}{"artist_id": *artist, "location": *location} }
}

func requestIDFlags(fs *flag.FlagSet) func() map[string]interface{} {
	id := fs.String("id", "", "agent request id")
	return func() map[string]interface{} { return map[string]interface{}{"id": *id} }
}

func acceptFlags(fs *flag.FlagSet) func() map[string]interface{} {
	id := fs.String("id", "", "agent request id")
	agent := fs.String("agent", "", "agent profile id (default: the caller's)")
	return func() map[string]interface{} { return map[string]interface{}{"id": *id, "agent_id": *agent} }
}

// buildRequest parses the flags of subcommand name and returns the full method and request fields.
func buildRequest(name string, args []string) (string, map[string]interface{}, error) {
	cmd, ok := commands[name]
	if !ok {
		return "", nil, fmt.Errorf("unknown command %q", name)
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fields := cmd.flags(fs)
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	if fs.NArg() > 0 {
		return "", nil, fmt.Errorf("%s: unexpected arguments %v", name, fs.Args())
	}
	return server.FullMethod(cmd.method), fields(), nil
}

func invoke(g globals, token, method string, fields map[string]interface{}) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(g.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func signToken(key, userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("-as is required with -key")
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	signer, err := security.ParsePrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("private key: %w", err)
	}
	issuer, err := security.NewIssuer(signer, cfg.JWTIssuer, cfg.JWTAudience, ttl)
	if err != nil {
		return "", err
	}
	token, _, err := issuer.Issue(userID, "marketctl")
	return token, err
}

func printToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	key := fs.String("key", "", "private key (PEM or path)")
	user := fs.String("user", "", "subject user id")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	token, err := signToken(*key, *user, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func usage(fs *flag.FlagSet) {
	fmt.Fprintln(fs.Output(), "usage: marketctl [global flags] <command> [flags]")
	fs.PrintDefaults()
	fmt.Fprintln(fs.Output(), "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(fs.Output(), "  %-17s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(fs.Output(), "  %-17s %s\n", "token", "print a dev access token for -user signed with -key")
}
