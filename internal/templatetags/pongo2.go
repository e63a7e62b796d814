package templatetags

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/flosch/pongo2/v6"

	"github.com/evcraddock/comment-utils/internal/contenttype"
)

var (
	active       atomic.Pointer[Library]
	registerOnce sync.Once
	registerErr  error
)

// Install registers the comment tags and filters with pongo2 and makes lib
// the library they query. pongo2 tags are process-wide, so a later Install
// replaces the library for every template.
func Install(lib *Library) error {
	if lib == nil || lib.Comments == nil || lib.ContentTypes == nil {
		return fmt.Errorf("library needs comments and content types")
	}
	registerOnce.Do(func() {
		registerErr = errors.Join(
			pongo2.RegisterTag("get_public_comment_list", listTag(false)),
			pongo2.RegisterTag("get_public_free_comment_list", listTag(true)),
			pongo2.RegisterTag("get_public_comment_count", countTag(false)),
			pongo2.RegisterTag("get_public_free_comment_count", countTag(true)),
			pongo2.RegisterFilter("comments_open", filterCommentsOpen),
			pongo2.RegisterFilter("comments_moderated", filterCommentsModerated),
		)
	})
	if registerErr != nil {
		return fmt.Errorf("registering template tags: %w", registerErr)
	}
	active.Store(lib)
	return nil
}

func current() (*Library, error) {
	lib := active.Load()
	if lib == nil {
		return nil, fmt.Errorf("comment template tags are not installed")
	}
	return lib, nil
}

// commentTagNode is the parsed form of all four tags:
//
//	{% tag for app.model <id> as <var> [reversed] %}
type commentTagNode struct {
	start    *pongo2.Token
	label    string
	objectID string            // literal ID, or
	object   pongo2.IEvaluator // an expression resolved at render time
	varName  string
	free     bool
	count    bool
	reversed bool
}

func listTag(free bool) pongo2.TagParser {
	return func(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
		return parseCommentTag(start, arguments, free, false)
	}
}

func countTag(free bool) pongo2.TagParser {
	return func(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
		return parseCommentTag(start, arguments, free, true)
	}
}

func parseCommentTag(start *pongo2.Token, arguments *pongo2.Parser, free, count bool) (pongo2.INodeTag, *pongo2.Error) {
	name := start.Val
	argCount := "5 or 6 arguments"
	if count {
		argCount = "five arguments"
	}
	if arguments.Remaining() < 5 {
		return nil, arguments.Error(fmt.Sprintf("'%s' tag takes %s", name, argCount), start)
	}

	if matchWord(arguments, "for") == nil {
		return nil, arguments.Error(fmt.Sprintf("first argument to '%s' tag must be 'for'", name), start)
	}

	app := arguments.MatchType(pongo2.TokenIdentifier)
	dot := arguments.Match(pongo2.TokenSymbol, ".")
	model := arguments.MatchType(pongo2.TokenIdentifier)
	if app == nil || dot == nil || model == nil {
		return nil, arguments.Error(
			fmt.Sprintf("second argument to '%s' tag must be in the form 'app_name.model_name'", name), start)
	}

	lib, err := current()
	if err != nil {
		return nil, arguments.Error(err.Error(), start)
	}
	ct, err := lib.ContentTypes.Get(app.Val, model.Val)
	if err != nil {
		return nil, arguments.Error(fmt.Sprintf("'%s' tag got invalid model '%s.%s'", name, app.Val, model.Val), start)
	}

	node := &commentTagNode{start: start, label: ct.Label(), free: free, count: count}

	if lit := literalID(arguments); lit != nil {
		if _, err := ct.Object(lit.Val); err != nil {
			if errors.Is(err, contenttype.ErrObjectNotFound) {
				return nil, arguments.Error(fmt.Sprintf("'%s' tag got reference to %s object with id %s, which doesn't exist",
					name, ct.Model, lit.Val), lit)
			}
			return nil, arguments.Error(fmt.Sprintf("'%s' tag could not load %s %s: %v", name, ct.Model, lit.Val, err), lit)
		}
		node.objectID = lit.Val
	} else {
		expr, perr := arguments.ParseExpression()
		if perr != nil {
			return nil, perr
		}
		node.object = expr
	}

	if matchWord(arguments, "as") == nil {
		return nil, arguments.Error(fmt.Sprintf("fourth argument to '%s' tag must be 'as'", name), start)
	}
	varTok := arguments.MatchType(pongo2.TokenIdentifier)
	if varTok == nil {
		return nil, arguments.Error(fmt.Sprintf("'%s' tag takes %s", name, argCount), start)
	}
	node.varName = varTok.Val

	if arguments.Remaining() > 0 {
		if count {
			return nil, arguments.Error(fmt.Sprintf("'%s' tag takes %s", name, argCount), start)
		}
		if matchWord(arguments, "reversed") == nil {
			return nil, arguments.Error(fmt.Sprintf("sixth argument to '%s' tag, if given, must be 'reversed'", name), start)
		}
		node.reversed = true
	}
	if arguments.Remaining() > 0 {
		return nil, arguments.Error(fmt.Sprintf("'%s' tag takes %s", name, argCount), start)
	}

	return node, nil
}

// matchWord consumes a bare word whether pongo2 lexes it as a keyword or
// an identifier.
func matchWord(arguments *pongo2.Parser, word string) *pongo2.Token {
	if tok := arguments.Match(pongo2.TokenKeyword, word); tok != nil {
		return tok
	}
	return arguments.Match(pongo2.TokenIdentifier, word)
}

// literalID consumes a number or string token standing for a fixed object ID.
func literalID(arguments *pongo2.Parser) *pongo2.Token {
	if tok := arguments.MatchType(pongo2.TokenNumber); tok != nil {
		return tok
	}
	return arguments.MatchType(pongo2.TokenString)
}

func (n *commentTagNode) Execute(ctx *pongo2.ExecutionContext, _ pongo2.TemplateWriter) *pongo2.Error {
	lib, err := current()
	if err != nil {
		return ctx.OrigError(err, n.start)
	}

	objectID := n.objectID
	if n.object != nil {
		v, perr := n.object.Evaluate(ctx)
		if perr != nil {
			return perr
		}
		if v.IsNil() || v.String() == "" {
			if n.count {
				ctx.Private[n.varName] = 0
			}
			return nil
		}
		objectID = v.String()
	}

	if n.count {
		total, err := lib.PublicCommentCount(n.label, objectID, n.free)
		if err != nil {
			return ctx.OrigError(err, n.start)
		}
		ctx.Private[n.varName] = total
		return nil
	}

	comments, err := lib.PublicComments(n.label, objectID, n.free, n.reversed)
	if err != nil {
		return ctx.OrigError(err, n.start)
	}
	ctx.Private[n.varName] = comments
	return nil
}

func filterCommentsOpen(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return moderationFilter("filter:comments_open", in, (*Library).CommentsOpen)
}

func filterCommentsModerated(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return moderationFilter("filter:comments_moderated", in, (*Library).CommentsModerated)
}

func moderationFilter(sender string, in *pongo2.Value, check func(*Library, any) (bool, error)) (*pongo2.Value, *pongo2.Error) {
	lib, err := current()
	if err != nil {
		return nil, &pongo2.Error{Sender: sender, OrigError: err}
	}
	ok, err := check(lib, in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: sender, OrigError: err}
	}
	return pongo2.AsValue(ok), nil
}
