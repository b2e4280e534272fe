package classfile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/tinyjvm/pkg/classfile"
	"github.com/daimatz/tinyjvm/pkg/classfile/classfiletest"
)

func TestResolveBounds(t *testing.T) {
	b, _ := classfiletest.HelloWorld("hi")
	pool := b.ClassFile().ConstantPool

	for i := 1; i <= len(pool); i++ {
		entry, err := pool.Resolve(uint16(i))
		require.NoError(t, err, "index %d", i)
		assert.Same(t, pool[i-1], entry, "index %d", i)
	}

	for _, idx := range []uint16{0, uint16(len(pool) + 1), 0xFFFF} {
		_, err := pool.Resolve(idx)
		assert.ErrorIs(t, err, classfile.ErrIndexOutOfRange, "index %d", idx)
	}
}

func TestResolveEmptyPool(t *testing.T) {
	var pool classfile.ConstantPool
	_, err := pool.Resolve(1)
	assert.ErrorIs(t, err, classfile.ErrIndexOutOfRange)
}

func TestConstantPoolAccessors(t *testing.T) {
	b, refs := classfiletest.HelloWorld("Hello, World!")
	pool := b.ClassFile().ConstantPool

	t.Run("string value", func(t *testing.T) {
		s, err := pool.StringValue(refs.Greeting)
		require.NoError(t, err)
		assert.Equal(t, "Hello, World!", s)
	})

	t.Run("member ref of a Fieldref", func(t *testing.T) {
		ref, err := pool.MemberRef(refs.SystemOut)
		require.NoError(t, err)
		assert.Equal(t, uint8(classfile.TagFieldref), ref.Tag)

		className, err := pool.ClassName(ref.ClassIndex)
		require.NoError(t, err)
		assert.Equal(t, "java/lang/System", className)

		name, err := pool.MemberName(ref.NameAndTypeIndex)
		require.NoError(t, err)
		assert.Equal(t, "out", name)
	})

	t.Run("resolve Methodref", func(t *testing.T) {
		info, err := pool.ResolveMemberRef(refs.Println)
		require.NoError(t, err)
		assert.Equal(t, "java/io/PrintStream.println:(Ljava/lang/String;)V", info.String())
	})

	t.Run("wrong variants", func(t *testing.T) {
		_, err := pool.StringValue(refs.SystemOut)
		assert.ErrorIs(t, err, classfile.ErrMalformedConstantPool)

		_, err = pool.MemberRef(refs.Greeting)
		assert.ErrorIs(t, err, classfile.ErrMalformedConstantPool)

		// A Class entry is not accepted where a NameAndType is required.
		ref, err := pool.MemberRef(refs.Println)
		require.NoError(t, err)
		_, err = pool.MemberName(ref.ClassIndex)
		assert.ErrorIs(t, err, classfile.ErrMalformedConstantPool)

		_, err = pool.ClassName(ref.NameAndTypeIndex)
		assert.ErrorIs(t, err, classfile.ErrMalformedConstantPool)
	})

	t.Run("dangling inner index", func(t *testing.T) {
		pool := classfile.ConstantPool{&classfile.ConstantString{StringIndex: 9}}
		_, err := pool.StringValue(1)
		assert.ErrorIs(t, err, classfile.ErrIndexOutOfRange)
	})
}

func TestTagName(t *testing.T) {
	assert.Equal(t, "NameAndType", classfile.TagName(classfile.TagNameAndType))
	assert.Equal(t, "tag(3)", classfile.TagName(3))
}
