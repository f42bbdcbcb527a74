package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HasReferenceLanguages(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"en", "hi", "kn", "mr", "ta", "te"}, c.Languages())

	for _, lang := range c.Languages() {
		for _, cat := range []string{"storm", "wind", "rain"} {
			msg := c.Render(cat, lang)
			assert.NotEqual(t, "title_"+cat, msg.Title, "lang %s", lang)
			assert.NotEqual(t, "body_"+cat, msg.Body, "lang %s", lang)
		}
	}
}

func TestRender_Telugu(t *testing.T) {
	msg := Default().Render("storm", "te")
	assert.Equal(t, "తుఫాను హెచ్చరిక", msg.Title)
	assert.Equal(t, "24 గంటల్లో ఉరుములు/మెరుపులతో వర్షం ఉండొచ్చు. భద్రంగా ఉండండి.", msg.Body)
}

func TestRender_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	msg := Default().Render("wind", "fr")
	assert.Equal(t, "High Wind Warning", msg.Title)
	assert.Equal(t, "Strong winds expected in the next 24 hours. Secure equipment.", msg.Body)
}

func TestRender_EmptyLanguageIsEnglish(t *testing.T) {
	msg := Default().Render("rain", "")
	assert.Equal(t, "Heavy Rain Warning", msg.Title)
}

func TestText_MissingKeyInLanguageUsesEnglish(t *testing.T) {
	c := New(map[string]map[string]string{
		"en": {"title_rain": "Rain", "body_rain": "Rain body"},
		"hi": {"title_rain": "बारिश"},
	})

	msg := c.Render("rain", "hi")
	assert.Equal(t, "बारिश", msg.Title)
	assert.Equal(t, "Rain body", msg.Body)
}

func TestText_MissingEverywhereReturnsKey(t *testing.T) {
	c := New(map[string]map[string]string{"en": {}})
	assert.Equal(t, "title_hail", c.Text("te", "title_hail"))
}

func TestText_EmptyEntryIsTreatedAsMissing(t *testing.T) {
	c := New(map[string]map[string]string{
		"en": {"title_storm": "Storm Alert"},
		"ta": {"title_storm": ""},
	})
	assert.Equal(t, "Storm Alert", c.Text("ta", "title_storm"))
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte("en:\n  title_storm: Storm\nxx:\n  title_storm: Sturm\n"))
	require.NoError(t, err)
	assert.Equal(t, "Sturm", c.Text("xx", "title_storm"))

	_, err = Parse([]byte("te:\n  title_storm: x\n"))
	require.Error(t, err)

	_, err = Parse([]byte("en: [unclosed"))
	require.Error(t, err)
}

func TestNew_CopiesInput(t *testing.T) {
	rows := map[string]map[string]string{"en": {"k": "v"}}
	c := New(rows)
	rows["en"]["k"] = "changed"
	assert.Equal(t, "v", c.Text("en", "k"))
}
