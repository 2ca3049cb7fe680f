package dom_test

import (
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formpilot/internal/browser/dom"
)

const loginPage = `
<html><body>
	<form id="login">
		<input id="email" name="Email Address" type="email" value="">
		<input id="password" type="password" value="hunter2">
		<input type="hidden" name="csrf" value="tok">
		<input type="submit" id="go" value="Login">
	</form>
</body></html>`

func TestInspect_LoginPage(t *testing.T) {
	in := dom.NewInspector("").Inspect(loginPage)

	assert.Equal(t, []string{"emailaddress", "password", "go"}, in.Identifiers(), "name outranks id, hidden inputs are dropped")

	require.Len(t, in.Controls, 1)
	assert.Equal(t, "#go", in.Controls[0].Selector)
	assert.Equal(t, "Login", in.Controls[0].Label)
	assert.Equal(t, "input", in.Controls[0].Tag)
}

func TestInspect_VisibilityRule(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		visible bool
	}{
		{"plain", `<input name="user">`, true},
		{"display none", `<input name="user" style="display:none">`, false},
		{"display none spaced upper", `<input name="user" style="DISPLAY : NONE">`, false},
		{"visibility hidden", `<input name="user" style="color:red; visibility: hidden">`, false},
		{"type hidden", `<input name="user" type="HIDDEN">`, false},
		{"ancestor display none", `<div style="display: none"><p><input name="user"></p></div>`, false},
		{"ancestor visibility hidden", `<section style="Visibility:Hidden"><input name="user"></section>`, false},
		{"visibility visible", `<input name="user" style="visibility:visible">`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := dom.NewInspector("login").Inspect("<html><body>" + tt.markup + "</body></html>")
			if tt.visible {
				assert.Equal(t, []string{"user"}, in.Identifiers())
			} else {
				assert.Empty(t, in.Identifiers())
			}
		})
	}
}

func TestInspect_HiddenControlsExcluded(t *testing.T) {
	markup := `<html><body>
		<button style="display:none">Login</button>
		<div style="visibility:hidden"><input type="submit" value="Login now"></div>
		<button type="hidden" name="b">Login</button>
	</body></html>`

	assert.Empty(t, dom.NewInspector("login").Inspect(markup).Controls)
}

func TestInspect_IdentifierPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		markup   string
		expected string
	}{
		{"automation id wins", `<input automation_id="auto" name="nm" id="i" placeholder="ph">`, "auto"},
		{"name over id", `<input name="nm" id="i" placeholder="ph">`, "nm"},
		{"id over placeholder", `<input id="i" placeholder="ph">`, "i"},
		{"placeholder last", `<input placeholder="  Your Email ">`, "Your Email"},
		{"blank name skipped", `<input name="  " id="i">`, "i"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := dom.NewInspector("").Inspect(tt.markup)
			require.Len(t, in.Fields, 1)
			assert.Equal(t, tt.expected, in.Fields[0].Identifier)
		})
	}

	t.Run("no identifier excluded", func(t *testing.T) {
		in := dom.NewInspector("").Inspect(`<input type="text" value="x">`)
		assert.Empty(t, in.Fields)
	})
}

func TestInspect_PasswordNeverReadBack(t *testing.T) {
	in := dom.NewInspector("").Inspect(`<input name="pwd" type="Password" value="s3cret">`)

	values := in.ValueMap()
	require.Contains(t, values, "pwd")
	assert.Empty(t, values["pwd"].Value)
	assert.True(t, values["pwd"].IsPassword())
	for _, f := range in.Fields {
		assert.NotContains(t, f.Value, "s3cret")
	}
}

func TestInspect_ValueMap(t *testing.T) {
	in := dom.NewInspector("").Inspect(`
		<input name="email" value="a@b.com" type="email">
		<input name="email" value="second">
		<input name="Zip Code" value=" 12345 ">`)

	values := in.ValueMap()
	assert.Equal(t, "a@b.com", values["email"].Value)
	assert.Equal(t, "email", values["email"].Type)
	assert.Equal(t, " 12345 ", values["zipcode"].Value, "values are reported untrimmed")
}

func TestInspect_SubmitControls(t *testing.T) {
	markup := `
		<button automation_id="login-btn" id="b1">Login</button>
		<button id="sign in">LOGIN</button>
		<button name="act">Please login</button>
		<input type="submit" value="Login">
		<div><span><button>Log In</button><button>Login</button></span></div>
		<input type="button" value="Login">
		<button>Continue</button>`

	in := dom.NewInspector("login").Inspect(markup)

	var selectors []string
	for _, c := range in.Controls {
		selectors = append(selectors, c.Selector)
	}
	assert.Equal(t, []string{
		"[automation_id='login-btn']",
		"[id='sign in']",
		"[name='act']",
		"input[value='Login']",
		"/html[1]/body[1]/div[1]/span[1]/button[2]",
	}, selectors)
}

func TestInspect_ControlsInDocumentOrder(t *testing.T) {
	in := dom.NewInspector("login").Inspect(
		`<button id="primary">Login</button><form><input type="submit" id="legacy" value="Login"></form>`)

	require.Len(t, in.Controls, 2)
	assert.Equal(t, "#primary", in.Controls[0].Selector, "the first control in the document is the submit target")
	assert.Equal(t, "#legacy", in.Controls[1].Selector)
}

func TestInspect_CustomKeyword(t *testing.T) {
	in := dom.NewInspector("Sign In").Inspect(`<button id="s">Sign in</button><button id="l">Login</button>`)
	require.Len(t, in.Controls, 1)
	assert.Equal(t, "#s", in.Controls[0].Selector)
}

func TestInspect_MalformedMarkup(t *testing.T) {
	inputs := []string{
		"",
		"<<<>>>",
		`<input name="a" <input name="b">`,
		`<div style="display:none"><input name="x"`,
		`<form><input name="user" value="u"></div></span><button>Login`,
	}
	for _, markup := range inputs {
		assert.NotPanics(t, func() { dom.NewInspector("").Inspect(markup) }, markup)
	}

	in := dom.NewInspector("").Inspect(`<form><input name="user" value="u"></div></span><button>Login`)
	assert.Equal(t, []string{"user"}, in.Identifiers())
	assert.Len(t, in.Controls, 1)
}

func TestSummarize(t *testing.T) {
	insp := dom.NewInspector("")

	t.Run("content and attributes", func(t *testing.T) {
		out := insp.Summarize(`<a href="/help" class="x">Help</a><input type="hidden" name="csrf">`, 0)
		assert.Equal(t, `<a href="/help" class="x">Help</a>`+"\n"+`Attributes: {"class":"x","href":"/help"}`, out)
	})

	t.Run("passwords scrubbed everywhere", func(t *testing.T) {
		out := insp.Summarize(`<form id="f"><input type="password" name="p" value="topsecret"></form>`, 0)
		assert.NotContains(t, out, "topsecret")
		assert.Contains(t, out, `name="p"`)
	})

	t.Run("form rendered without its children", func(t *testing.T) {
		out := insp.Summarize(`<form id="f"><input type="hidden" name="csrf" value="tok"><div style="display:none"><input name="trap"></div><input name="email"></form>`, 0)
		assert.NotContains(t, out, "csrf")
		assert.NotContains(t, out, "trap")
		assert.Contains(t, out, `<form id="f"></form>`)
		assert.Equal(t, 2, strings.Count(out, "Attributes:"))
		assert.Contains(t, out, `<input name="email"/>`)
	})

	t.Run("hidden filtered before cap", func(t *testing.T) {
		var b strings.Builder
		b.WriteString(`<div style="display:none">`)
		for i := 0; i < 5; i++ {
			b.WriteString(`<button>hidden</button>`)
		}
		b.WriteString(`</div>`)
		for i := 0; i < 5; i++ {
			b.WriteString(`<button>shown</button>`)
		}
		out := insp.Summarize(b.String(), 3)
		assert.Equal(t, 3, strings.Count(out, "Attributes:"))
		assert.NotContains(t, out, "hidden")
	})

	t.Run("default cap", func(t *testing.T) {
		out := insp.Summarize(strings.Repeat(`<select name="s"></select>`, dom.DefaultSummaryLimit+20), 0)
		assert.Equal(t, dom.DefaultSummaryLimit, strings.Count(out, "Attributes:"))
	})
}

// FuzzInspect feeds generated, mostly malformed markup through the inspector.
func FuzzInspect(f *testing.F) {
	f.Add([]byte(loginPage))
	f.Add([]byte(`<div style="display:none"><input name="a"></div>`))

	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		markup, err := consumer.GetString()
		if err != nil {
			markup = string(data)
		}
		keyword, _ := consumer.GetString()

		insp := dom.NewInspector(keyword)
		in := insp.Inspect(markup)
		for _, field := range in.Fields {
			if field.IsPassword() {
				assert.Empty(t, field.Value)
			}
			assert.NotEmpty(t, field.Key)
		}
		for _, c := range in.Controls {
			assert.NotEmpty(t, c.Selector)
		}
		_ = insp.Summarize(markup, 10)
	})
}
