package fence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantBodies   []string
		wantLangs    []string
		unterminated bool
	}{
		{
			name: "no fence",
			text: "Just prose.\nNothing else.",
		},
		{
			name:       "one tagged block",
			text:       "Intro\n```python\nprint(1)\n```\nOutro",
			wantBodies: []string{"print(1)"},
			wantLangs:  []string{"python"},
		},
		{
			name:       "untagged block",
			text:       "```\nplain\n```",
			wantBodies: []string{"plain"},
			wantLangs:  []string{""},
		},
		{
			name:       "two blocks",
			text:       "```python\na = 1\n```\ntext\n```sql\nselect 1\n```",
			wantBodies: []string{"a = 1", "select 1"},
			wantLangs:  []string{"python", "sql"},
		},
		{
			name:       "tilde fence holds backticks",
			text:       "~~~python\ns = \"```\"\n~~~",
			wantBodies: []string{"s = \"```\""},
			wantLangs:  []string{"python"},
		},
		{
			name:       "longer closing marker",
			text:       "````python\nx\n``````",
			wantBodies: []string{"x"},
			wantLangs:  []string{"python"},
		},
		{
			name:       "shorter marker does not close",
			text:       "````python\n```\nx\n````",
			wantBodies: []string{"```\nx"},
			wantLangs:  []string{"python"},
		},
		{
			name:       "info string keeps first word as language",
			text:       "``` Python title=\"run.py\"\nx\n```",
			wantBodies: []string{"x"},
			wantLangs:  []string{"Python"},
		},
		{
			name:       "indented fence strips indent from body",
			text:       "  ```python\n    x = 1\n  y = 2\n  ```",
			wantBodies: []string{"  x = 1\ny = 2"},
			wantLangs:  []string{"python"},
		},
		{
			name:       "empty body",
			text:       "```python\n```",
			wantBodies: []string{""},
			wantLangs:  []string{"python"},
		},
		{
			name:       "crlf line endings",
			text:       "```python\r\nprint(1)\r\n```\r\n",
			wantBodies: []string{"print(1)"},
			wantLangs:  []string{"python"},
		},
		{
			name:         "unterminated",
			text:         "```python\nprint(1)\n",
			unterminated: true,
		},
		{
			name: "four spaces is not a fence",
			text: "    ```python\n    x\n    ```",
		},
		{
			name: "two backticks is not a fence",
			text: "``python\nx\n``",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.text)

			var bodies, langs []string
			for _, b := range res.Blocks {
				bodies = append(bodies, b.Body)
				langs = append(langs, b.Lang)
			}
			assert.Equal(t, tt.wantBodies, bodies)
			assert.Equal(t, tt.wantLangs, langs)
			assert.Equal(t, tt.unterminated, res.Unterminated)
		})
	}
}

func TestParse_LinePositions(t *testing.T) {
	res := Parse("a\n```go\nx\ny\n```\nb")
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, 1, res.Blocks[0].StartLine)
	assert.Equal(t, 4, res.Blocks[0].EndLine)
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		lang   string
		want   string
		wantOK bool
	}{
		{
			name:   "single python block",
			text:   "Here is the code:\n\n```python\nimport json\n\ndef transform(d):\n    return d\n```\n\nThe function maps A to B.",
			lang:   "python",
			want:   "import json\n\ndef transform(d):\n    return d",
			wantOK: true,
		},
		{
			name:   "language match ignores case",
			text:   "```Python\nx\n```",
			lang:   "python",
			want:   "x",
			wantOK: true,
		},
		{
			name:   "any tag when lang is empty",
			text:   "```js\nx\n```",
			want:   "x",
			wantOK: true,
		},
		{
			name:   "untagged blocks are not candidates",
			text:   "```\noutput\n```\n```python\ncode\n```",
			lang:   "python",
			want:   "code",
			wantOK: true,
		},
		{
			name:   "other languages are not candidates",
			text:   "```bash\npip install x\n```\n```python\ncode\n```",
			lang:   "python",
			want:   "code",
			wantOK: true,
		},
		{
			name: "no fence",
			text: "I could not produce a transformation.",
			lang: "python",
		},
		{
			name: "only untagged block",
			text: "```\nx\n```",
			lang: "python",
		},
		{
			name: "two matching blocks",
			text: "```python\na\n```\n```python\nb\n```",
			lang: "python",
		},
		{
			name: "unterminated fence",
			text: "```python\na\n```\n```python\nb",
			lang: "python",
		},
		{
			name: "empty text",
			lang: "python",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := Extract(tt.text, tt.lang)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, b.Body)
		})
	}
}
