package oba

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Precedence levels the Pratt table dispatches on, per spec §4.2's ladder
// "NONE < LOWEST < COND < SUM < PRODUCT < CALL", with PrecAndOr inserted
// between COND and SUM for `and`/`or` per SPEC_FULL.md.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecLowest
	PrecCond
	PrecAndOr
	PrecSum
	PrecProduct
	PrecCall
)

type parseFn func(c *compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is filled in by init rather than by a variable initializer, because
// the parse functions it holds read rules themselves.
var rules map[TokenKind]parseRule

func init() {
	rules = map[TokenKind]parseRule{
		TokLParen: {prefix: (*compiler).grouping, infix: (*compiler).call, precedence: PrecCall},
		TokMinus:  {prefix: (*compiler).unary, infix: (*compiler).binary, precedence: PrecSum},
		TokPlus:   {infix: (*compiler).binary, precedence: PrecSum},
		TokStar:   {infix: (*compiler).binary, precedence: PrecProduct},
		TokSlash:  {infix: (*compiler).binary, precedence: PrecProduct},
		TokNot:    {prefix: (*compiler).unary},
		TokEq:     {infix: (*compiler).binary, precedence: PrecCond},
		TokNeq:    {infix: (*compiler).binary, precedence: PrecCond},
		TokLt:     {infix: (*compiler).binary, precedence: PrecCond},
		TokGt:     {infix: (*compiler).binary, precedence: PrecCond},
		TokLte:    {infix: (*compiler).binary, precedence: PrecCond},
		TokGte:    {infix: (*compiler).binary, precedence: PrecCond},
		TokAnd:    {infix: (*compiler).and_, precedence: PrecAndOr},
		TokOr:     {infix: (*compiler).or_, precedence: PrecAndOr},
		TokNumber: {prefix: (*compiler).number},
		TokString: {prefix: (*compiler).stringLit},
		TokIdent:  {prefix: (*compiler).variable},
		TokTrue:   {prefix: (*compiler).literalTrue},
		TokFalse:  {prefix: (*compiler).literalFalse},
		TokMatch:  {prefix: (*compiler).matchExpr},
	}
}

// parser holds the token stream and error-accumulation state shared by
// every nested function compiler for one Interpret call, per spec §4.2's
// "single-pass" discipline and §7's "reports each and sets a flag;
// emission continues so multiple issues surface in one pass".
type parser struct {
	lx   *Lexer
	prev Token
	cur  Token

	hadError  bool
	panicMode bool
	errs      *multierror.Error
}

func (p *parser) advance() {
	p.prev = p.cur
	for {
		p.cur = p.lx.Next()
		if p.cur.Kind != TokError {
			break
		}
		p.errorAtCurrent(p.cur.Str)
	}
}

func (p *parser) check(kind TokenKind) bool { return p.cur.Kind == kind }

func (p *parser) match(kind TokenKind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(kind TokenKind, msg string) Token {
	if p.check(kind) {
		p.advance()
		return p.prev
	}
	p.errorAtCurrent(msg)
	return p.cur
}

func (p *parser) skipNewlines() {
	for p.check(TokNewline) {
		p.advance()
	}
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.cur, msg) }
func (p *parser) errorAtPrev(msg string)    { p.errorAt(p.prev, msg) }

func (p *parser) errorAt(tok Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true
	where := ""
	switch tok.Kind {
	case TokEOF:
		where = " at end"
	case TokError:
	default:
		where = fmt.Sprintf(" at %q", tok.Lexeme)
	}
	p.errs = multierror.Append(p.errs, parseError{Line: tok.Line, Message: msg + where})
}

// synchronize skips tokens after a parse error until a plausible statement
// boundary, so the rest of the source can still be scanned for more
// problems in the same compile, per spec §7.
func (p *parser) synchronize() {
	p.panicMode = false
	for !p.check(TokEOF) {
		if p.prev.Kind == TokNewline {
			return
		}
		switch p.cur.Kind {
		case TokLet, TokFn, TokDebug, TokIf, TokMatch, TokRBrace:
			return
		}
		p.advance()
	}
}

// localVar is a name bound to a stack slot within the compiling function,
// per spec §4.2's local table. An empty name marks a compiler-internal
// anonymous slot (the match scrutinee) that no identifier can resolve to.
type localVar struct {
	name     string
	depth    int
	captured bool
}

// upvalueRef records how the Nth upvalue of the compiling function is
// captured, mirroring ObjClosure's runtime UpvalueDesc (object.go) at
// compile time, per spec §4.2.
type upvalueRef struct {
	isLocal bool
	index   int
}

// compiler compiles one function (top-level script or a nested `fn`) into
// its own Chunk. Nested compilers chain through enclosing the way the
// upvalue-resolution algorithm in spec §4.2 walks outward.
type compiler struct {
	*parser
	vm        *VM
	enclosing *compiler

	fn *ObjFunction

	locals     []localVar
	upvalues   []upvalueRef
	scopeDepth int
}

// newCompiler constructs the root (top-level) compiler for source, per
// spec §4.2's "a new compiler context" — here, the outermost one, whose
// Chunk becomes the Function Interpret hands to the VM. Its slot 0 is
// reserved for the top-level closure, which Interpret pushes at the base of
// the first frame.
func newCompiler(vm *VM, lx *Lexer) *compiler {
	return &compiler{
		parser: &parser{lx: lx},
		vm:     vm,
		fn:     &ObjFunction{},
		locals: []localVar{{name: "", depth: 0}},
	}
}

// compile drives the whole single-pass parse, per spec §4.2/§7: every
// top-level declaration is compiled in source order, errors accumulate
// rather than aborting the pass, and a non-empty error set yields a
// *CompileError without ever reaching the VM.
func (c *compiler) compile() (*ObjFunction, error) {
	c.advance()
	c.skipNewlines()
	for !c.check(TokEOF) {
		c.declaration()
		c.skipNewlines()
	}
	c.emitOp(OpNil)
	c.emitOp(OpReturn)
	if c.hadError {
		return nil, &CompileError{Errors: c.errs}
	}
	return c.fn, nil
}

// --- declarations & statements ---

func (c *compiler) declaration() {
	switch {
	case c.match(TokLet):
		c.letDeclaration()
	case c.match(TokFn):
		c.fnDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *compiler) letDeclaration() {
	nameTok := c.consume(TokIdent, "expect variable name after 'let'")
	c.consume(TokAssign, "expect '=' after variable name")
	c.expression(PrecLowest)
	c.defineVariable(nameTok)
}

func (c *compiler) defineVariable(nameTok Token) {
	if c.scopeDepth > 0 {
		c.addLocal(nameTok.Lexeme)
		return
	}
	idx := c.identifierConstant(nameTok.Lexeme)
	c.emitOp(OpDefineGlobal)
	c.emitByte(byte(idx))
}

func (c *compiler) fnDeclaration() {
	nameTok := c.consume(TokIdent, "expect function name after 'fn'")
	if c.scopeDepth > 0 {
		c.addLocal(nameTok.Lexeme)
	}
	c.function(nameTok.Lexeme)
	if c.scopeDepth == 0 {
		idx := c.identifierConstant(nameTok.Lexeme)
		c.emitOp(OpDefineGlobal)
		c.emitByte(byte(idx))
	}
}

// function compiles a nested function body into its own Chunk and emits
// the enclosing CLOSURE instruction (plus trailing upvalue descriptors)
// that builds it at runtime, per spec §4.2's "Function compilation".
func (c *compiler) function(name string) {
	fc := &compiler{parser: c.parser, vm: c.vm, enclosing: c, fn: &ObjFunction{Name: name}}
	fc.addLocal("") // slot 0 reserved for the function itself, per spec §4.2
	fc.beginScope() // parameters live at scope depth 1, per spec §4.2
	for fc.check(TokIdent) {
		fc.advance()
		fc.addLocal(fc.prev.Lexeme)
		fc.fn.Arity++
	}
	fc.functionBody()
	fc.emitReturn()
	fc.fn.UpvalCount = len(fc.upvalues)

	obj := c.vm.wrapFunction(fc.fn)
	idx, err := c.fn.Chunk.AddConstant(ObjectValue(obj))
	if err != nil {
		c.errorAtPrev(err.Error())
	}
	c.emitOp(OpClosure)
	c.emitByte(byte(idx))
	for _, uv := range fc.upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(byte(uv.index))
	}
}

// functionBody requires a braced block or a match chain, per SPEC_FULL.md
// ("body is a braced block OR a chain of match clauses"); this is also
// what keeps the preceding bare-identifier parameter loop unambiguous.
func (c *compiler) functionBody() {
	switch {
	case c.check(TokLBrace):
		c.advance()
		c.beginScope()
		c.blockValueStatements()
		c.endScopeValue()
	case c.check(TokMatch):
		c.advance()
		c.matchBody()
	default:
		c.errorAtCurrent("expect '{' or 'match' to start function body")
	}
}

// statement compiles one statement whose net stack effect is zero (beyond
// `let`'s one-local-per-block exception), per spec §4.2 / §8's stack
// balance invariant.
func (c *compiler) statement() {
	switch {
	case c.match(TokDebug):
		c.debugStatement()
	case c.match(TokIf):
		c.ifStatement()
	case c.check(TokLBrace):
		c.advance()
		c.beginScope()
		c.blockStatementBody()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compiler) debugStatement() {
	c.expression(PrecLowest)
	c.emitOp(OpDebug)
}

// ifStatement desugars to a JUMP_IF_FALSE/JUMP pair, the same shape a match
// arm builds from JUMP_IF_NOT_MATCH/JUMP, per SPEC_FULL.md's supplemented
// `if`/`else` grammar.
func (c *compiler) ifStatement() {
	c.expression(PrecLowest)
	thenJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.requireBlockStatement("expect '{' after if condition")
	elseJump := c.emitJump(OpJump)
	c.patchJump(thenJump)
	c.emitOp(OpPop)
	if c.match(TokElse) {
		if c.check(TokIf) {
			c.advance()
			c.ifStatement()
		} else {
			c.requireBlockStatement("expect '{' after else")
		}
	}
	c.patchJump(elseJump)
}

func (c *compiler) requireBlockStatement(msg string) {
	if !c.check(TokLBrace) {
		c.errorAtCurrent(msg)
		return
	}
	c.advance()
	c.beginScope()
	c.blockStatementBody()
	c.endScope()
}

func (c *compiler) expressionStatement() {
	c.expression(PrecLowest)
	c.emitOp(OpPop)
}

// blockStatementBody compiles `{ STATEMENTS }` used in an ordinary
// statement position (if/else bodies, nested blocks): every bare
// expression is popped, so the block's net stack effect is zero, per
// spec §4.2's block-statement rule.
func (c *compiler) blockStatementBody() {
	c.skipNewlines()
	for !c.check(TokRBrace) && !c.check(TokEOF) {
		c.declaration()
		c.skipNewlines()
	}
	c.consume(TokRBrace, "expect '}' after block")
}

// blockValueStatements compiles `{ STATEMENTS }` used where the block
// itself must produce a value (a function body, or a braced match-arm
// body): every statement but a single trailing bare expression is
// compiled and popped exactly as blockStatementBody does; a final bare
// expression is left on the stack as the block's value instead, and an
// empty block (or one not ending in a bare expression) yields `nil`. The
// caller is responsible for beginScope/endScopeValue around this call.
func (c *compiler) blockValueStatements() {
	c.skipNewlines()
	for {
		if c.check(TokRBrace) || c.check(TokEOF) {
			c.consume(TokRBrace, "expect '}'")
			c.emitOp(OpNil)
			return
		}
		switch {
		case c.match(TokLet):
			c.letDeclaration()
		case c.match(TokFn):
			c.fnDeclaration()
		case c.match(TokDebug):
			c.debugStatement()
		case c.match(TokIf):
			c.ifStatement()
		case c.check(TokLBrace):
			c.advance()
			c.beginScope()
			c.blockStatementBody()
			c.endScope()
		default:
			c.expression(PrecLowest)
			c.skipNewlines()
			if c.check(TokRBrace) {
				c.advance()
				return
			}
			c.emitOp(OpPop)
			c.skipNewlines()
			if c.panicMode {
				c.synchronize()
			}
			continue
		}
		if c.panicMode {
			c.synchronize()
		}
		c.skipNewlines()
	}
}

// --- scopes & locals ---

func (c *compiler) beginScope() { c.scopeDepth++ }

// endScope closes a statement-position scope: every local effect is
// popped (or, if captured, closed via CLOSE_UPVALUE, which itself pops),
// per spec §4.2's block-closing rule.
func (c *compiler) endScope() {
	c.scopeDepth--
	keepFrom := len(c.locals)
	for keepFrom > 0 && c.locals[keepFrom-1].depth > c.scopeDepth {
		keepFrom--
	}
	for i := len(c.locals) - 1; i >= keepFrom; i-- {
		if c.locals[i].captured {
			c.emitOp(OpCloseUpvalue)
		} else {
			c.emitOp(OpPop)
		}
	}
	c.locals = c.locals[:keepFrom]
}

// endScopeValue closes a value-position scope (a function or match-arm
// block): the block's value is already sitting on top of its locals, so
// those locals are collapsed out from under it instead of popped off the
// top (see collapseLocals).
func (c *compiler) endScopeValue() {
	c.scopeDepth--
	keepFrom := len(c.locals)
	for keepFrom > 0 && c.locals[keepFrom-1].depth > c.scopeDepth {
		keepFrom--
	}
	c.collapseLocals(keepFrom)
}

// collapseLocals moves the value currently on top of the stack down into
// the slot of the first local at index keepFrom, then closes every local
// above that slot (CLOSE_UPVALUE for captured ones, POP otherwise),
// leaving just the moved value on top. Used both to close a value-block's
// scope and to finalize a match expression's single scrutinee slot.
func (c *compiler) collapseLocals(keepFrom int) {
	if keepFrom >= len(c.locals) {
		return
	}
	c.emitOp(OpSetLocal)
	c.emitByte(byte(keepFrom))
	for i := len(c.locals) - 1; i >= keepFrom; i-- {
		if c.locals[i].captured {
			c.emitOp(OpCloseUpvalue)
		} else {
			c.emitOp(OpPop)
		}
	}
	c.locals = c.locals[:keepFrom]
}

// addLocal declares name at the current scope depth, raising a compile
// error on a duplicate binding within that same scope, per spec §7
// ("duplicate local in the same scope"). An empty name bypasses the
// duplicate check: it marks an anonymous compiler-internal slot.
func (c *compiler) addLocal(name string) {
	if name != "" {
		for i := len(c.locals) - 1; i >= 0; i-- {
			if c.locals[i].depth < c.scopeDepth {
				break
			}
			if c.locals[i].name == name {
				c.errorAtPrev(fmt.Sprintf("variable %q already declared in this scope", name))
				break
			}
		}
	}
	c.locals = append(c.locals, localVar{name: name, depth: c.scopeDepth})
}

func (c *compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return i
		}
	}
	return -1
}

func (c *compiler) addUpvalue(isLocal bool, index int) int {
	for i, uv := range c.upvalues {
		if uv.isLocal == isLocal && uv.index == index {
			return i
		}
	}
	c.upvalues = append(c.upvalues, upvalueRef{isLocal: isLocal, index: index})
	return len(c.upvalues) - 1
}

// resolveUpvalue implements spec §4.2's upward walk: a name found as a
// local of the immediately enclosing function becomes an is_local upvalue
// entry (and marks that local captured, for endScope's CLOSE_UPVALUE
// choice); a name found as an upvalue further out chains through.
func (c *compiler) resolveUpvalue(name string) int {
	if c.enclosing == nil {
		return -1
	}
	if local := c.enclosing.resolveLocal(name); local != -1 {
		c.enclosing.locals[local].captured = true
		return c.addUpvalue(true, local)
	}
	if up := c.enclosing.resolveUpvalue(name); up != -1 {
		return c.addUpvalue(false, up)
	}
	return -1
}

// --- expressions (Pratt parser) ---

// expression implements spec §4.2's parse(min_prec) algorithm directly.
func (c *compiler) expression(minPrec Precedence) {
	c.advance()
	rule, ok := rules[c.prev.Kind]
	if !ok || rule.prefix == nil {
		c.errorAtPrev("expected an expression")
		return
	}
	canAssign := minPrec <= PrecLowest
	rule.prefix(c, canAssign)

	for minPrec <= rules[c.cur.Kind].precedence {
		c.advance()
		infix := rules[c.prev.Kind].infix
		infix(c, canAssign)
	}

	if canAssign && c.check(TokAssign) {
		c.errorAtCurrent("invalid assignment target")
	}
}

func (c *compiler) number(canAssign bool) {
	c.emitConstant(NumberValue(c.prev.Number))
}

func (c *compiler) stringLit(canAssign bool) {
	obj := c.vm.allocString(c.prev.Str)
	c.emitConstant(ObjectValue(obj))
}

func (c *compiler) literalTrue(canAssign bool)  { c.emitOp(OpTrue) }
func (c *compiler) literalFalse(canAssign bool) { c.emitOp(OpFalse) }

func (c *compiler) grouping(canAssign bool) {
	c.expression(PrecLowest)
	c.consume(TokRParen, "expect ')' after expression")
}

// variable resolves an identifier per spec §4.2's three-tier search
// (locals, then upvalues, then globals), compiling an assignment instead
// of a read when canAssign allows it and a bare '=' follows.
func (c *compiler) variable(canAssign bool) {
	c.namedVariable(c.prev, canAssign)
}

func (c *compiler) namedVariable(nameTok Token, canAssign bool) {
	var getOp, setOp OpCode
	var arg int
	switch {
	case c.resolveLocalArg(nameTok.Lexeme, &arg):
		getOp, setOp = OpGetLocal, OpSetLocal
	case c.resolveUpvalueArg(nameTok.Lexeme, &arg):
		getOp, setOp = OpGetUpvalue, OpSetUpvalue
	default:
		arg = c.identifierConstant(nameTok.Lexeme)
		getOp, setOp = OpGetGlobal, OpSetGlobal
	}
	if canAssign && c.match(TokAssign) {
		c.expression(PrecLowest)
		c.emitOp(setOp)
		c.emitByte(byte(arg))
		return
	}
	c.emitOp(getOp)
	c.emitByte(byte(arg))
}

func (c *compiler) resolveLocalArg(name string, arg *int) bool {
	if i := c.resolveLocal(name); i != -1 {
		*arg = i
		return true
	}
	return false
}

func (c *compiler) resolveUpvalueArg(name string, arg *int) bool {
	if i := c.resolveUpvalue(name); i != -1 {
		*arg = i
		return true
	}
	return false
}

// unary compiles `!` and `-`. There is no dedicated negate opcode in the
// table (spec §4.5), so unary minus desugars to `0 - operand`, reusing
// SUB rather than growing the opcode set — the same philosophy
// SPEC_FULL.md applies to `and`/`or`.
func (c *compiler) unary(canAssign bool) {
	switch c.prev.Kind {
	case TokNot:
		c.expression(PrecProduct)
		c.emitOp(OpNot)
	case TokMinus:
		c.emitConstant(NumberValue(0))
		c.expression(PrecProduct)
		c.emitOp(OpSub)
	}
}

// binary compiles every infix arithmetic/comparison operator. Per spec
// §4.2 these are right-associative, so the right operand recurses at the
// SAME precedence as the operator rather than one level higher.
func (c *compiler) binary(canAssign bool) {
	op := c.prev.Kind
	rule := rules[op]
	c.expression(rule.precedence)
	switch op {
	case TokPlus:
		c.emitOp(OpAdd)
	case TokMinus:
		c.emitOp(OpSub)
	case TokStar:
		c.emitOp(OpMul)
	case TokSlash:
		c.emitOp(OpDiv)
	case TokEq:
		c.emitOp(OpEqual)
	case TokNeq:
		c.emitOp(OpNotEqual)
	case TokLt:
		c.emitOp(OpLess)
	case TokGt:
		c.emitOp(OpGreater)
	case TokLte:
		c.emitOp(OpLessEqual)
	case TokGte:
		c.emitOp(OpGreaterEqual)
	}
}

// and_/or_ short-circuit using the existing peek-and-jump opcodes
// (JUMP_IF_FALSE/JUMP_IF_TRUE leave their operand on the stack), per
// SPEC_FULL.md: no new opcode is needed for logical operators.
func (c *compiler) and_(canAssign bool) {
	end := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.expression(PrecAndOr)
	c.patchJump(end)
}

func (c *compiler) or_(canAssign bool) {
	end := c.emitJump(OpJumpIfTrue)
	c.emitOp(OpPop)
	c.expression(PrecAndOr)
	c.patchJump(end)
}

// call compiles `callee(arg arg ...)`. Oba's grammar has no comma token,
// so arguments are simply juxtaposed expressions, each one self
// terminating at the next token with no applicable infix rule.
func (c *compiler) call(canAssign bool) {
	argc := 0
	c.skipNewlines()
	for !c.check(TokRParen) && !c.check(TokEOF) {
		c.expression(PrecLowest)
		argc++
		if argc > 255 {
			c.errorAtPrev("too many arguments (max 255)")
		}
		c.skipNewlines()
	}
	c.consume(TokRParen, "expect ')' after arguments")
	c.emitOp(OpCall)
	c.emitByte(byte(argc))
}

// matchExpr is the Pratt prefix handler for a `match` expression that
// appears inline inside a larger expression; matchBody does the actual
// work and is shared with functionBody's direct "match as function body"
// form.
func (c *compiler) matchExpr(canAssign bool) {
	c.matchBody()
}

// matchBody compiles `EXPR | PATTERN = BODY | PATTERN = BODY ;` assuming
// the leading `match` keyword has already been consumed, per spec §4.2.
// The scrutinee is held in an anonymous local slot so each arm can
// re-push a copy of it (spec's "duplicate scrutinee" step) via GET_LOCAL;
// an arm whose pattern matches leaves its body's value one slot above the
// scrutinee, and collapseLocals folds that down to the match's own net
// +1 effect once every arm has been compiled. Falling off the last arm's
// mismatch jump reaches a GET_GLOBAL of a sentinel name that is never
// defined, which the VM recognizes (vm.go) and raises as errNoMatchArm —
// reusing an existing opcode instead of adding one just for this.
func (c *compiler) matchBody() {
	c.expression(PrecLowest)
	c.beginScope()
	c.addLocal("")
	scrutSlot := len(c.locals) - 1

	var endJumps []int
	for {
		c.skipNewlines()
		c.consume(TokPipe, "expect '|' before match pattern")
		c.emitOp(OpGetLocal)
		c.emitByte(byte(scrutSlot))
		// Above PrecLowest, so the pattern is never an assignment target
		// and the '=' that follows it is left for the consume below.
		c.expression(PrecCond)
		c.skipNewlines()
		c.consume(TokAssign, "expect '=' after match pattern")
		c.skipNewlines()
		notMatch := c.emitJump(OpJumpIfNotMatch)
		c.emitOp(OpPop)
		c.matchArmBody()
		endJumps = append(endJumps, c.emitJump(OpJump))
		c.patchJump(notMatch)
		c.skipNewlines()
		if c.match(TokSemicolon) {
			break
		}
		if c.check(TokEOF) {
			c.errorAtCurrent("expect ';' after match arms")
			break
		}
	}

	idx := c.identifierConstant(matchExhaustionSentinel)
	c.emitOp(OpGetGlobal)
	c.emitByte(byte(idx))

	for _, j := range endJumps {
		c.patchJump(j)
	}
	c.collapseLocals(scrutSlot)
	c.scopeDepth--
}

// matchArmBody compiles the value after a match arm's `=`: either a
// braced value-block or a single expression.
func (c *compiler) matchArmBody() {
	if c.check(TokLBrace) {
		c.advance()
		c.beginScope()
		c.blockValueStatements()
		c.endScopeValue()
		return
	}
	c.expression(PrecLowest)
}

// --- emission helpers ---

func (c *compiler) chunk() *Chunk { return &c.fn.Chunk }

func (c *compiler) emitOp(op OpCode) { c.chunk().WriteOp(op, c.prev.Line) }

func (c *compiler) emitByte(b byte) { c.chunk().Write(b, c.prev.Line) }

func (c *compiler) emitJump(op OpCode) int { return c.chunk().WriteJump(op, c.prev.Line) }

func (c *compiler) patchJump(offset int) {
	if err := c.chunk().PatchJump(offset); err != nil {
		c.errorAtPrev(err.Error())
	}
}

func (c *compiler) emitConstant(v Value) {
	if err := c.chunk().WriteConstant(v, c.prev.Line); err != nil {
		c.errorAtPrev(err.Error())
	}
}

func (c *compiler) emitReturn() { c.emitOp(OpReturn) }

func (c *compiler) identifierConstant(name string) int {
	obj := c.vm.allocString(name)
	idx, err := c.chunk().AddConstant(ObjectValue(obj))
	if err != nil {
		c.errorAtPrev(err.Error())
		return 0
	}
	return idx
}
