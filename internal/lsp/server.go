// Package lsp serves editor requests over stdio JSON-RPC. Requests are
// handled one at a time in arrival order; every mutation of open-document
// state happens inside the didOpen/didChange/didSave/didClose handlers, so
// the session never needs locking.
package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kitecorp/kitels/internal/project"
	"github.com/kitecorp/kitels/internal/workspace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures server behavior.
type ServerOptions struct {
	MaxDiagnostics int
	Disabled       map[string]bool
	Version        string
}

// Server handles stdio JSON-RPC for the Kite language server.
type Server struct {
	in  *bufio.Reader
	out *bufio.Writer

	sess      *workspace.Session
	root      string
	published map[string]bool

	maxDiagnostics    int
	disabled          map[string]bool
	version           string
	shutdownRequested bool
}

// NewServer constructs a server over the given streams. The session is
// created at initialize, once the workspace root is known.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	return &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		published:      make(map[string]bool),
		maxDiagnostics: opts.MaxDiagnostics,
		disabled:       opts.Disabled,
		version:        opts.Version,
	}
}

// Run serves requests until exit or stream close.
func (s *Server) Run() error {
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		s.shutdownRequested = true
		return s.sendResponse(msg.ID, nil)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/typeDefinition":
		return s.handleTypeDefinition(msg)
	case "textDocument/references":
		return s.handleReferences(msg)
	case "textDocument/implementation":
		return s.handleImplementation(msg)
	case "textDocument/documentHighlight":
		return s.handleDocumentHighlight(msg)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(msg)
	case "textDocument/prepareRename":
		return s.handlePrepareRename(msg)
	case "textDocument/rename":
		return s.handleRename(msg)
	case "textDocument/linkedEditingRange":
		return s.handleLinkedEditingRange(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/semanticTokens/full":
		return s.handleSemanticTokens(msg)
	case "textDocument/foldingRange":
		return s.handleFoldingRange(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	root := uriToPath(params.RootURI)
	if root == "" && params.RootPath != "" {
		root = filepath.ToSlash(params.RootPath)
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = filepath.ToSlash(wd)
		}
	}
	s.setupSession(root)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save:      saveOptions{IncludeText: true},
			},
			HoverProvider:              true,
			DefinitionProvider:         true,
			TypeDefinitionProvider:     true,
			ReferencesProvider:         true,
			ImplementationProvider:     true,
			DocumentHighlightProvider:  true,
			DocumentSymbolProvider:     true,
			RenameProvider:             &renameOptions{PrepareProvider: true},
			LinkedEditingRangeProvider: true,
			CompletionProvider:         &completionOptions{TriggerCharacters: []string{"."}},
			SemanticTokensProvider: &semanticTokensOptions{
				Legend: tokenLegend(),
				Full:   true,
			},
			FoldingRangeProvider: true,
			CodeActionProvider: &codeActionOptions{
				CodeActionKinds: []string{"quickfix", "source.organizeImports", "refactor.rewrite"},
			},
		},
		ServerInfo: serverInfo{Name: "kitels", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

// setupSession builds the session over the project root. Manifest settings
// apply unless the CLI already pinned them.
func (s *Server) setupSession(root string) {
	include := project.DefaultInclude
	var exclude []string
	if manifest, ok, err := project.Discover(root); err == nil && ok {
		root = manifest.Root
		include = manifest.Config.Workspace.Include
		exclude = manifest.Config.Workspace.Exclude
		if s.maxDiagnostics == 0 {
			s.maxDiagnostics = manifest.Config.Lint.MaxDiagnostics
		}
		if s.disabled == nil {
			s.disabled = manifest.DisabledSet()
		}
	}
	s.root = root
	s.sess = workspace.NewSession(workspace.NewDirHost(root, include, exclude))
}

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	var settings lspSettings
	if err := json.Unmarshal(params.Settings, &settings); err != nil {
		return nil
	}
	if settings.Kite.MaxDiagnostics != nil {
		s.maxDiagnostics = *settings.Kite.MaxDiagnostics
	}
	if settings.Kite.DisabledRules != nil {
		s.disabled = make(map[string]bool, len(settings.Kite.DisabledRules))
		for _, rule := range settings.Kite.DisabledRules {
			s.disabled[rule] = true
		}
	}
	for _, path := range s.openPaths() {
		if err := s.publishFor(path); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	path := uriToPath(params.TextDocument.URI)
	if path == "" || s.sess == nil {
		return nil
	}
	s.sess.OnOpen(path, params.TextDocument.Version, params.TextDocument.Text)
	return s.publishFor(path)
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	path := uriToPath(params.TextDocument.URI)
	if path == "" || s.sess == nil {
		return nil
	}
	text := ""
	if doc, ok := s.sess.Open(path); ok {
		text = doc.Text()
	}
	text = applyChanges(text, params.ContentChanges)
	s.sess.OnChange(path, params.TextDocument.Version, text)
	return s.publishFor(path)
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	path := uriToPath(params.TextDocument.URI)
	if path == "" || s.sess == nil {
		return nil
	}
	if params.Text != nil {
		version := 0
		if doc, ok := s.sess.Open(path); ok {
			version = doc.Version
		}
		s.sess.OnChange(path, version, *params.Text)
	}
	return s.publishFor(path)
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	path := uriToPath(params.TextDocument.URI)
	if path == "" || s.sess == nil {
		return nil
	}
	s.sess.OnClose(path)
	uri := pathToURI(path)
	if s.published[uri] {
		delete(s.published, uri)
		return s.sendPublish(uri, 0, nil)
	}
	return nil
}

// document resolves a request URI to its session document, open buffer
// first.
func (s *Server) document(uri string) (*workspace.Document, bool) {
	if s.sess == nil {
		return nil, false
	}
	path := uriToPath(uri)
	if path == "" {
		return nil, false
	}
	return s.sess.Load(path)
}

func (s *Server) openPaths() []string {
	if s.sess == nil {
		return nil
	}
	return s.sess.OpenPaths()
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	})
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error":   rpcError{Code: code, Message: message},
	})
}

func (s *Server) sendPublish(uri string, version int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     version,
			Diagnostics: list,
		},
	})
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "lsp: "+format+"\n", args...)
}
