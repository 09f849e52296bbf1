package atomicfile_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rosterpipe/internal/atomicfile"
)

func TestWrite(t *testing.T) {
	Convey("Given a path in a missing directory", t, func() {
		path := filepath.Join(t.TempDir(), "a", "b", "out.json")

		Convey("When it is written twice", func() {
			So(atomicfile.Write(path, []byte("first"), 0o644), ShouldBeNil)
			So(atomicfile.Write(path, []byte("second"), 0o644), ShouldBeNil)

			Convey("Then the last write wins and no temp files remain", func() {
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "second")

				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})
		})
	})
}
