package sqlitestore

import (
	"testing"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/esekit/internal/report"
	"github.com/joshuapare/esekit/pkg/types"
)

// fixtureScript builds a miniature Windows.db: one file item (with UTF-16
// blob strings and an integer FILETIME), one activity item, one browser
// history item.
const fixtureScript = `
CREATE TABLE SystemIndex_1_PropertyStore_Metadata (Id INTEGER PRIMARY KEY, UniqueKey TEXT);
CREATE TABLE SystemIndex_1_PropertyStore (WorkId INTEGER, ColumnId INTEGER, Value);
INSERT INTO SystemIndex_1_PropertyStore_Metadata VALUES (1, '33-System_ItemPathDisplay');
INSERT INTO SystemIndex_1_PropertyStore_Metadata VALUES (2, '5-System_ComputerName');
INSERT INTO SystemIndex_1_PropertyStore_Metadata VALUES (3, '4447-System_ItemType');
INSERT INTO SystemIndex_1_PropertyStore_Metadata VALUES (4, '318-System_ItemUrl');
INSERT INTO SystemIndex_1_PropertyStore_Metadata VALUES (5, '15F-System_DateModified');
INSERT INTO SystemIndex_1_PropertyStore VALUES (1, 1, x'43003a005c0064006f00630073005c0061002e00740078007400');
INSERT INTO SystemIndex_1_PropertyStore VALUES (1, 2, x'48004f00530054005900');
INSERT INTO SystemIndex_1_PropertyStore VALUES (1, 3, '.txt');
INSERT INTO SystemIndex_1_PropertyStore VALUES (1, 5, 132539328000000000);
INSERT INTO SystemIndex_1_PropertyStore VALUES (2, 3, 'ActivityHistoryItem');
INSERT INTO SystemIndex_1_PropertyStore VALUES (2, 4, 'app://z');
INSERT INTO SystemIndex_1_PropertyStore VALUES (3, 4, 'iehistory://v');
`

func createFixture(t *testing.T) string {
	t.Helper()
	path := t.TempDir() + "/Windows.db"
	conn, err := sqlite.OpenConn(path, 0)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, sqlitex.ExecScript(conn, fixtureScript))
	return path
}

func newProducer(t *testing.T) (*report.Producer, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	p, err := report.NewProducer(fs, "out", report.FormatJSON, report.ToFile)
	require.NoError(t, err)
	p.SetClock(func() time.Time {
		return time.Date(2023, 3, 7, 1, 52, 44, 0, time.UTC)
	})
	return p, fs
}

func TestGenerateReport(t *testing.T) {
	path := createFixture(t)
	p, fs := newProducer(t)

	paths, err := GenerateReport(path, p)
	require.NoError(t, err)
	require.Equal(t, []string{
		"out/HOSTY_File_Report_20230307_015244.json",
		"out/HOSTY_Activity_History_Report_20230307_015244.json",
		"out/HOSTY_Internet_History_Report_20230307_015244.json",
	}, paths)

	fileOut, err := afero.ReadFile(fs, paths[0])
	require.NoError(t, err)
	assert.Equal(t,
		`{"WorkId":1,"System_ComputerName":"HOSTY","System_ItemPathDisplay":"C:\\docs\\a.txt",`+
			`"System_DateModified":"2021-01-01T00:00:00Z","System_ItemType":".txt"}`,
		string(fileOut))

	actOut, err := afero.ReadFile(fs, paths[1])
	require.NoError(t, err)
	assert.Equal(t, `{"WorkId":2,"System_ItemUrl":"app://z"}`, string(actOut))

	netOut, err := afero.ReadFile(fs, paths[2])
	require.NoError(t, err)
	assert.Equal(t, `{"WorkId":3,"System_ItemUrl":"iehistory://v"}`, string(netOut))
}

func TestGenerateReportMissingTables(t *testing.T) {
	path := t.TempDir() + "/Windows.db"
	conn, err := sqlite.OpenConn(path, 0)
	require.NoError(t, err)
	require.NoError(t, sqlitex.ExecScript(conn, `CREATE TABLE unrelated (x);`))
	require.NoError(t, conn.Close())

	p, _ := newProducer(t)
	_, err = GenerateReport(path, p)
	assert.Error(t, err)
}

func TestGenerateReportNoSuchFile(t *testing.T) {
	p, _ := newProducer(t)
	_, err := GenerateReport(t.TempDir()+"/missing.db", p)
	assert.Error(t, err)
}

func TestBlobValue(t *testing.T) {
	v := blobValue([]byte{0x48, 0x00, 0x69, 0x00})
	require.Equal(t, types.ValueString, v.Kind)
	assert.Equal(t, "Hi", v.Str)

	// odd length stays binary
	v = blobValue([]byte{0x48, 0x00, 0x69})
	assert.Equal(t, types.ValueBinary, v.Kind)

	// non-ASCII high bytes stay binary
	filetime := []byte{0x00, 0x80, 0x35, 0x0C, 0xD1, 0xDF, 0xD6, 0x01}
	v = blobValue(filetime)
	require.Equal(t, types.ValueBinary, v.Kind)
	assert.Equal(t, filetime, v.Bytes)

	assert.Equal(t, types.ValueBinary, blobValue(nil).Kind)
}
